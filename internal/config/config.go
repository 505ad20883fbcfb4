package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-semantic-release/release-registry/internal/storage"
	"github.com/google/go-github/v59/github"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/oauth2"
)

const (
	StorageModeS3    = "s3"
	StorageModeLocal = "local"

	AuditBackendFirestore = "firestore"
	AuditBackendMemory    = "memory"

	// DefaultVersionPattern matches versioned file names like app-1.2.3.deb as
	// well as bare app versions like 1.2.3.
	DefaultVersionPattern = `.*?(\d+\.\d+\.\d+).*`
)

type Config struct {
	Stage             string        `envconfig:"STAGE" default:"dev"`
	ProjectID         string        `envconfig:"GOOGLE_CLOUD_PROJECT_ID" default:"go-semantic-release"`
	StorageMode       string        `envconfig:"STORAGE_MODE" default:"s3"`
	S3Bucket          string        `envconfig:"S3_BUCKET"`
	S3AccessKeyID     string        `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string        `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Region          string        `envconfig:"S3_REGION" default:"eu-west-3"`
	S3Endpoint        string        `envconfig:"S3_ENDPOINT"`
	CloudflareAccount string        `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
	BaseURL           string        `envconfig:"BASE_URL"`
	LocalDir          string        `envconfig:"LOCAL_DIR"`
	VersionPattern    string        `envconfig:"VERSION_PATTERN" default:".*?(\\d+\\.\\d+\\.\\d+).*"`
	Timezone          string        `envconfig:"TIMEZONE" default:"UTC"`
	ListingCacheTTL   time.Duration `envconfig:"LISTING_CACHE_TTL"`
	AuditBackend      string        `envconfig:"AUDIT_BACKEND" default:"firestore"`
	GitHubToken       string        `envconfig:"GITHUB_TOKEN"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat         string        `envconfig:"LOG_FORMAT" default:"text"`
	LogFile           string        `envconfig:"LOG_FILE"`
	DisableMetrics    bool          `envconfig:"DISABLE_METRICS"`
	Version           string        `ignored:"true"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageMode {
	case StorageModeS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is missing")
		}
		if c.S3AccessKeyID == "" {
			return errors.New("S3_ACCESS_KEY_ID is missing")
		}
		if c.S3SecretAccessKey == "" {
			return errors.New("S3_SECRET_ACCESS_KEY is missing")
		}
	case StorageModeLocal:
		if c.LocalDir == "" {
			return errors.New("LOCAL_DIR is missing")
		}
	default:
		return fmt.Errorf("unknown storage mode %q", c.StorageMode)
	}
	switch c.AuditBackend {
	case AuditBackendFirestore:
	case AuditBackendMemory:
		return errors.New("audit backend memory does not persist records between runs")
	default:
		return fmt.Errorf("unknown audit backend %q", c.AuditBackend)
	}
	if _, err := c.GetLocation(); err != nil {
		return err
	}
	return nil
}

func (c *Config) GetLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// GetCollectionPrefix returns the prefix of all firestore collections of the stage.
func (c *Config) GetCollectionPrefix() string {
	return c.Stage
}

// GetS3BaseURL returns the public base URL of the bucket objects.
func (c *Config) GetS3BaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return fmt.Sprintf("https://s3.%s.amazonaws.com/", c.S3Region)
}

func (c *Config) getS3Endpoint() string {
	if c.S3Endpoint != "" {
		return c.S3Endpoint
	}
	if c.CloudflareAccount != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.CloudflareAccount)
	}
	return ""
}

func (c *Config) s3EndpointResolver(_, _ string, _ ...interface{}) (aws.Endpoint, error) {
	endpoint := c.getS3Endpoint()
	if endpoint == "" {
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	}
	return aws.Endpoint{
		URL:               endpoint,
		HostnameImmutable: true,
	}, nil
}

func (c *Config) CreateS3Client(ctx context.Context) (*s3.Client, error) {
	staticCredentialsProvider := credentials.NewStaticCredentialsProvider(
		c.S3AccessKeyID,
		c.S3SecretAccessKey,
		"",
	)
	s3Cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(c.S3Region),
		awsConfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(c.s3EndpointResolver)),
		awsConfig.WithCredentialsProvider(staticCredentialsProvider),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(s3Cfg, func(o *s3.Options) {
		o.UsePathStyle = c.getS3Endpoint() != ""
	}), nil
}

// CreateArtifactStore creates the artifact store of the configured storage mode.
func (c *Config) CreateArtifactStore(ctx context.Context) (storage.Store, error) {
	var store storage.Store
	switch c.StorageMode {
	case StorageModeLocal:
		store = storage.NewLocalStore(c.LocalDir, c.BaseURL)
	default:
		s3Client, err := c.CreateS3Client(ctx)
		if err != nil {
			return nil, err
		}
		store = storage.NewS3Store(s3Client, c.S3Bucket, c.GetS3BaseURL())
	}
	if c.ListingCacheTTL > 0 {
		store = storage.NewCachedStore(store, c.ListingCacheTTL)
	}
	return store, nil
}

func (c *Config) CreateFirestoreClient(ctx context.Context) (*firestore.Client, error) {
	return firestore.NewClient(ctx, c.ProjectID)
}

func (c *Config) CreateGitHubClient(ctx context.Context) *github.Client {
	if c.GitHubToken == "" {
		return github.NewClient(nil)
	}
	oauthClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.GitHubToken}))
	return github.NewClient(oauthClient)
}
