package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-semantic-release/release-registry/internal/metrics"
	"github.com/go-semantic-release/release-registry/internal/storage"
	"github.com/go-semantic-release/release-registry/internal/version"
	"github.com/go-semantic-release/release-registry/pkg/registry"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
)

// Resolver resolves release artifacts stored in a storage.Store.
type Resolver struct {
	log   *logrus.Logger
	store storage.Store
	codec *version.Codec
}

func New(log *logrus.Logger, store storage.Store, codec *version.Codec) *Resolver {
	return &Resolver{
		log:   log,
		store: store,
		codec: codec,
	}
}

func (r *Resolver) toArtifact(o storage.ObjectInfo, platform registry.PlatformType) (*registry.Artifact, error) {
	v, err := r.codec.Extract(o.Name)
	if err != nil {
		return nil, err
	}
	return &registry.Artifact{
		Name:         o.Name,
		Location:     r.store.Location(o.Name),
		SizeBytes:    o.SizeBytes,
		Version:      v,
		PlatformType: platform,
		ModifiedAt:   o.ModifiedAt,
	}, nil
}

// platformArtifacts converts all objects carrying the platform suffix. An
// object with the suffix but without a version is an error.
func (r *Resolver) platformArtifacts(objects []storage.ObjectInfo, platform registry.PlatformType) ([]*registry.Artifact, error) {
	res := make([]*registry.Artifact, 0)
	for _, o := range objects {
		if !platform.Matches(o.Name) {
			continue
		}
		a, err := r.toArtifact(o, platform)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}

// SelectLatest returns the artifact with the greatest version, or nil for an
// empty input. Equal versions resolve to the lexicographically smallest name.
func SelectLatest(artifacts []*registry.Artifact) *registry.Artifact {
	var latest *registry.Artifact
	for _, a := range artifacts {
		if latest == nil {
			latest = a
			continue
		}
		cmp := version.Compare(a.Version, latest.Version)
		if cmp > 0 || (cmp == 0 && a.Name < latest.Name) {
			latest = a
		}
	}
	return latest
}

func (r *Resolver) list(ctx context.Context) ([]storage.ObjectInfo, error) {
	objects, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return objects, nil
}

func (r *Resolver) latestFrom(objects []storage.ObjectInfo, platform registry.PlatformType) (*registry.Artifact, error) {
	artifacts, err := r.platformArtifacts(objects, platform)
	if err != nil {
		return nil, err
	}
	return SelectLatest(artifacts), nil
}

// Latest returns the artifact with the greatest version for platform or nil
// if no artifact carries the platform suffix.
func (r *Resolver) Latest(ctx context.Context, platform registry.PlatformType) (*registry.Artifact, error) {
	objects, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	return r.latestFrom(objects, platform)
}

// LatestAll returns the latest artifact of every platform that has one.
func (r *Resolver) LatestAll(ctx context.Context) ([]*registry.Artifact, error) {
	objects, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*registry.Artifact, 0)
	for _, platform := range registry.PlatformTypes() {
		latest, err := r.latestFrom(objects, platform)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			res = append(res, latest)
		}
	}
	return res, nil
}

// LatestMatching returns the latest artifact of platform whose version
// satisfies the semver constraint.
func (r *Resolver) LatestMatching(ctx context.Context, platform registry.PlatformType, versionConstraint string) (*registry.Artifact, error) {
	if versionConstraint == "" || versionConstraint == "latest" {
		latest, err := r.Latest(ctx, platform)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, &ArtifactNotFoundError{PlatformType: platform}
		}
		return latest, nil
	}
	objects, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	artifacts, err := r.platformArtifacts(objects, platform)
	if err != nil {
		return nil, err
	}
	versions := make([]string, len(artifacts))
	for i, a := range artifacts {
		versions[i] = a.Version
	}
	matchingVersion, err := version.MatchConstraint(versionConstraint, versions)
	if errors.Is(err, version.ErrNoMatchingVersion) {
		return nil, fmt.Errorf("%w: %w", &ArtifactNotFoundError{PlatformType: platform}, err)
	}
	if err != nil {
		return nil, err
	}
	matching := make([]*registry.Artifact, 0)
	for _, a := range artifacts {
		if a.Version == matchingVersion {
			matching = append(matching, a)
		}
	}
	return SelectLatest(matching), nil
}

// List returns every artifact belonging to a platform, grouped by platform
// and ordered by descending version.
func (r *Resolver) List(ctx context.Context) ([]*registry.Artifact, error) {
	objects, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*registry.Artifact, 0)
	for _, platform := range registry.PlatformTypes() {
		artifacts, err := r.platformArtifacts(objects, platform)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(artifacts, func(i, j int) bool {
			cmp := version.Compare(artifacts[i].Version, artifacts[j].Version)
			if cmp == 0 {
				return artifacts[i].Name < artifacts[j].Name
			}
			return cmp > 0
		})
		res = append(res, artifacts...)
	}
	return res, nil
}

// UploadOrReplace stores data under fileName, replacing an existing artifact
// with the same name, and makes it publicly readable. The file name has to
// match the version pattern.
func (r *Resolver) UploadOrReplace(ctx context.Context, fileName string, data []byte) error {
	if !r.codec.HasVersion(fileName) {
		return &InvalidFilenameError{FileName: fileName, Pattern: r.codec.Pattern()}
	}
	uploadLogger := r.log.WithFields(logrus.Fields{
		"fileName": fileName,
		"size":     len(data),
	})

	uploadLogger.Info("replacing existing artifact...")
	if err := r.DeleteIfExists(ctx, fileName); err != nil {
		return err
	}
	uploadLogger.Info("uploading artifact...")
	if err := r.store.Put(ctx, fileName, data); err != nil {
		return fmt.Errorf("failed to upload artifact: %w", err)
	}
	if err := r.store.SetPubliclyReadable(ctx, fileName); err != nil {
		return fmt.Errorf("failed to publish artifact: %w", err)
	}
	uploadLogger.Info("uploaded artifact.")

	platform, ok := registry.PlatformForFileName(fileName)
	if !ok {
		platform = "unknown"
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.TagPlatform, string(platform)))
	stats.Record(ctx, metrics.CounterUploads.M(1))
	return nil
}

// DeleteIfExists removes fileName from the store. Missing files are ignored.
func (r *Resolver) DeleteIfExists(ctx context.Context, fileName string) error {
	if err := r.store.Delete(ctx, fileName); err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// ResolveVersion returns the version of the single artifact of platform. If
// more than one file carries the platform suffix, the most recently modified
// one is used.
func (r *Resolver) ResolveVersion(ctx context.Context, platform registry.PlatformType) (string, error) {
	objects, err := r.list(ctx)
	if err != nil {
		return "", err
	}
	var found *storage.ObjectInfo
	for i, o := range objects {
		if !platform.Matches(o.Name) {
			continue
		}
		if found == nil || o.ModifiedAt.After(found.ModifiedAt) ||
			(o.ModifiedAt.Equal(found.ModifiedAt) && o.Name < found.Name) {
			found = &objects[i]
		}
	}
	if found == nil {
		return "", &ArtifactNotFoundError{PlatformType: platform}
	}
	return r.codec.Extract(found.Name)
}

// StreamFor opens the artifact named fileName. The caller has to close the
// returned reader.
func (r *Resolver) StreamFor(ctx context.Context, fileName string) (io.ReadCloser, *registry.Artifact, error) {
	platform, ok := registry.PlatformForFileName(fileName)
	if !ok {
		return nil, nil, &ArtifactNotFoundError{FileName: fileName}
	}
	objects, err := r.list(ctx)
	if err != nil {
		return nil, nil, err
	}
	var artifact *registry.Artifact
	for _, o := range objects {
		if o.Name != fileName {
			continue
		}
		artifact, err = r.toArtifact(o, platform)
		if err != nil {
			return nil, nil, err
		}
		break
	}
	if artifact == nil {
		return nil, nil, &ArtifactNotFoundError{FileName: fileName}
	}
	body, err := r.store.Get(ctx, fileName)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, &ArtifactNotFoundError{FileName: fileName}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return body, artifact, nil
}
