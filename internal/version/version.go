package version

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	ErrVersionNotFound   = errors.New("version not found")
	ErrNoMatchingVersion = errors.New("no matching version found")
)

// NotFoundError is returned when a file name does not carry a version under
// the configured pattern.
type NotFoundError struct {
	FileName string
	Pattern  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("impossible to find version in %q with pattern %q", e.FileName, e.Pattern)
}

func (e *NotFoundError) Unwrap() error {
	return ErrVersionNotFound
}

// Codec extracts and compares versions embedded in release file names.
type Codec struct {
	pattern    string
	search     *regexp.Regexp
	full       *regexp.Regexp
	appVersion *regexp.Regexp
}

func New(pattern string) (*Codec, error) {
	search, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid version pattern %q: %w", pattern, err)
	}
	if search.NumSubexp() < 1 {
		return nil, fmt.Errorf("version pattern %q has no capturing group", pattern)
	}
	return &Codec{
		pattern:    pattern,
		search:     search,
		full:       regexp.MustCompile("^(?:" + pattern + ")$"),
		appVersion: regexp.MustCompile("^(?:" + pattern + ")(-SNAPSHOT)?$"),
	}, nil
}

func MustNew(pattern string) *Codec {
	c, err := New(pattern)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Codec) Pattern() string {
	return c.pattern
}

// HasVersion reports whether the whole file name matches the pattern.
func (c *Codec) HasVersion(fileName string) bool {
	return c.full.MatchString(fileName)
}

// IsAppVersion reports whether v is a valid application version, optionally
// suffixed with -SNAPSHOT.
func (c *Codec) IsAppVersion(v string) bool {
	return c.appVersion.MatchString(v)
}

// Extract returns the first capturing group of the first pattern match in fileName.
func (c *Codec) Extract(fileName string) (string, error) {
	m := c.search.FindStringSubmatch(fileName)
	if m == nil || m[1] == "" {
		return "", &NotFoundError{FileName: fileName, Pattern: c.pattern}
	}
	return m[1], nil
}

// component returns the leading digits of s without leading zeros, so
// "3-rc1" compares as "3" and "x" as "".
func component(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end >= 0 {
		s = s[:end]
	}
	return strings.TrimLeft(s, "0")
}

// compareComponents compares two digit strings as integers of any size.
func compareComponents(c1, c2 string) int {
	if len(c1) != len(c2) {
		if len(c1) < len(c2) {
			return -1
		}
		return 1
	}
	return strings.Compare(c1, c2)
}

// Compare compares two dotted numeric versions component by component and
// returns -1, 0 or 1. If all shared components are equal, the version with
// more components is greater.
func Compare(v1, v2 string) int {
	p1 := strings.Split(v1, ".")
	p2 := strings.Split(v2, ".")
	for i := 0; i < len(p1) && i < len(p2); i++ {
		if cmp := compareComponents(component(p1[i]), component(p2[i])); cmp != 0 {
			return cmp
		}
	}
	switch {
	case len(p1) < len(p2):
		return -1
	case len(p1) > len(p2):
		return 1
	}
	return 0
}

// Max returns the greatest version or an empty string for an empty input.
func Max(versions []string) string {
	max := ""
	for i, v := range versions {
		if i == 0 || Compare(v, max) > 0 {
			max = v
		}
	}
	return max
}

// MatchConstraint returns the greatest version satisfying the semver constraint.
func MatchConstraint(versionConstraint string, versions []string) (string, error) {
	constraint, err := semver.NewConstraint(versionConstraint)
	if err != nil {
		return "", fmt.Errorf("failed to parse version constraint: %w", err)
	}
	sorted := make([]string, 0, len(versions))
	for _, v := range versions {
		if _, pErr := semver.NewVersion(v); pErr != nil {
			continue
		}
		sorted = append(sorted, v)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return Compare(sorted[i], sorted[j]) > 0
	})
	for _, v := range sorted {
		if constraint.Check(semver.MustParse(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w for constraint %s", ErrNoMatchingVersion, constraint.String())
}
