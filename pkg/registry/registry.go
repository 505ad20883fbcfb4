package registry

import (
	"fmt"
	"strings"
	"time"
)

type PlatformType string

const (
	PlatformLinuxArchive     PlatformType = "linux-archive"
	PlatformLinuxPackage     PlatformType = "linux-package"
	PlatformWindowsInstaller PlatformType = "windows-installer"
)

var platformSuffixes = []struct {
	platform PlatformType
	suffix   string
}{
	{PlatformLinuxArchive, "tar.bz2"},
	{PlatformLinuxPackage, "deb"},
	{PlatformWindowsInstaller, "msi"},
}

// PlatformTypes returns all platform types in declaration order.
func PlatformTypes() []PlatformType {
	res := make([]PlatformType, len(platformSuffixes))
	for i, ps := range platformSuffixes {
		res[i] = ps.platform
	}
	return res
}

func ParsePlatformType(s string) (PlatformType, error) {
	for _, ps := range platformSuffixes {
		if string(ps.platform) == strings.ToLower(s) {
			return ps.platform, nil
		}
	}
	return "", fmt.Errorf("unknown platform type %q", s)
}

// Suffix returns the file name extension bound to the platform type.
func (p PlatformType) Suffix() string {
	for _, ps := range platformSuffixes {
		if ps.platform == p {
			return ps.suffix
		}
	}
	return ""
}

func (p PlatformType) Matches(fileName string) bool {
	suffix := p.Suffix()
	return suffix != "" && strings.HasSuffix(fileName, suffix)
}

func (p PlatformType) String() string {
	return string(p)
}

// PlatformForFileName returns the platform type whose suffix fileName ends with.
func PlatformForFileName(fileName string) (PlatformType, bool) {
	for _, ps := range platformSuffixes {
		if strings.HasSuffix(fileName, ps.suffix) {
			return ps.platform, true
		}
	}
	return "", false
}

type Artifact struct {
	Name         string
	Location     string
	SizeBytes    int64
	Version      string
	PlatformType PlatformType
	ModifiedAt   time.Time
}

type AuditKind string

const (
	AuditKindDownload AuditKind = "download"
	AuditKindVersion  AuditKind = "version"
)

type AuditRecord struct {
	ID           string
	Kind         AuditKind
	AppVersion   string
	PlatformType PlatformType
	OccurredAt   time.Time
}

type VersionCount struct {
	AppVersion   string
	PlatformType PlatformType
	Count        int64
}

type Issue struct {
	ID         string
	Value      string
	AppVersion string
	OccurredAt time.Time
}
