package binary

import (
	"errors"
	"fmt"

	"github.com/go-semantic-release/release-registry/internal/version"
	"github.com/go-semantic-release/release-registry/pkg/registry"
)

var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrVersionNotFound is matched by every version extraction failure.
	ErrVersionNotFound = version.ErrVersionNotFound
)

type InvalidFilenameError struct {
	FileName string
	Pattern  string
}

func (e *InvalidFilenameError) Error() string {
	return fmt.Sprintf("binary version is missing in filename %q (pattern %q)", e.FileName, e.Pattern)
}

func (e *InvalidFilenameError) Unwrap() error {
	return ErrInvalidFilename
}

type ArtifactNotFoundError struct {
	FileName     string
	PlatformType registry.PlatformType
}

func (e *ArtifactNotFoundError) Error() string {
	if e.FileName != "" {
		return fmt.Sprintf("artifact %s not found", e.FileName)
	}
	return fmt.Sprintf("no artifact found for platform %s", e.PlatformType)
}

func (e *ArtifactNotFoundError) Unwrap() error {
	return ErrArtifactNotFound
}
