package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-semantic-release/release-registry/internal/fetch"
	"github.com/go-semantic-release/release-registry/internal/version"
	"github.com/go-semantic-release/release-registry/pkg/registry"
	"github.com/google/go-github/v59/github"
	"github.com/sirupsen/logrus"
)

type Uploader interface {
	UploadOrReplace(ctx context.Context, fileName string, data []byte) error
}

type DownloadFunc func(ctx context.Context, url, checksum string) ([]byte, error)

// Mirror copies release assets of GitHub releases into the registry.
type Mirror struct {
	log      *logrus.Logger
	ghClient *github.Client
	codec    *version.Codec
	uploader Uploader
	download DownloadFunc
}

func New(log *logrus.Logger, ghClient *github.Client, codec *version.Codec, uploader Uploader) *Mirror {
	return &Mirror{
		log:      log,
		ghClient: ghClient,
		codec:    codec,
		uploader: uploader,
		download: fetch.Download,
	}
}

func getOwnerRepo(fullRepo string) (string, string) {
	owner, repo, found := strings.Cut(fullRepo, "/")
	if !found {
		return "", ""
	}

	return owner, repo
}

func (m *Mirror) getGitHubRelease(ctx context.Context, fullRepo, tag string) (*github.RepositoryRelease, error) {
	owner, repo := getOwnerRepo(fullRepo)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository %q", fullRepo)
	}
	var release *github.RepositoryRelease
	var err error
	if tag == "" {
		release, _, err = m.ghClient.Repositories.GetLatestRelease(ctx, owner, repo)
	} else {
		release, _, err = m.ghClient.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
	}
	if err != nil {
		return nil, err
	}
	if release.GetDraft() {
		return nil, fmt.Errorf("release is a draft")
	}
	if _, err := semver.NewVersion(release.GetTagName()); err != nil {
		return nil, fmt.Errorf("release is not a valid semver version: %w", err)
	}
	if len(release.Assets) == 0 {
		return nil, fmt.Errorf("release has no assets")
	}
	return release, nil
}

func (m *Mirror) fetchChecksumFile(ctx context.Context, url string) (map[string]string, error) {
	ret := make(map[string]string)
	checksums, err := m.download(ctx, url, "")
	if err != nil {
		return nil, err
	}
	for _, l := range strings.Split(string(checksums), "\n") {
		fields := strings.Fields(l)
		if len(fields) != 2 {
			continue
		}
		ret[strings.ToLower(fields[1])] = fields[0]
	}
	return ret, nil
}

type releaseAsset struct {
	FileName string
	URL      string
	Checksum string
}

// getReleaseAssets returns the assets that belong to a platform and carry a
// version in their name.
func (m *Mirror) getReleaseAssets(ctx context.Context, gha []*github.ReleaseAsset) ([]*releaseAsset, error) {
	assets := make([]*releaseAsset, 0)
	var checksumMap map[string]string
	for _, asset := range gha {
		fn := asset.GetName()
		if checksumMap == nil && asset.GetSize() <= 4096 && strings.Contains(strings.ToLower(fn), "checksums.txt") {
			csMap, err := m.fetchChecksumFile(ctx, asset.GetBrowserDownloadURL())
			if err != nil {
				return nil, fmt.Errorf("failed to fetch checksums: %w", err)
			}
			checksumMap = csMap
			continue
		}
		if _, ok := registry.PlatformForFileName(fn); !ok {
			continue
		}
		if !m.codec.HasVersion(fn) {
			m.log.Warnf("skipping asset %s: name does not match %s", fn, m.codec.Pattern())
			continue
		}
		assets = append(assets, &releaseAsset{
			FileName: fn,
			URL:      asset.GetBrowserDownloadURL(),
		})
	}
	for _, a := range assets {
		a.Checksum = checksumMap[strings.ToLower(a.FileName)]
	}
	return assets, nil
}

// Mirror uploads the platform assets of the release tag of fullRepo
// ("owner/repo"). The latest release is used if tag is empty.
func (m *Mirror) Mirror(ctx context.Context, fullRepo, tag string) ([]string, error) {
	release, err := m.getGitHubRelease(ctx, fullRepo, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to get release: %w", err)
	}
	assets, err := m.getReleaseAssets(ctx, release.Assets)
	if err != nil {
		return nil, err
	}
	mirrored := make([]string, 0, len(assets))
	for _, a := range assets {
		m.log.Infof("mirroring %s@%s: %s", fullRepo, release.GetTagName(), a.FileName)
		data, err := m.download(ctx, a.URL, a.Checksum)
		if err != nil {
			return mirrored, fmt.Errorf("failed to download %s: %w", a.FileName, err)
		}
		if err := m.uploader.UploadOrReplace(ctx, a.FileName, data); err != nil {
			return mirrored, err
		}
		mirrored = append(mirrored, a.FileName)
	}
	return mirrored, nil
}
