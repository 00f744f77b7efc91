// Package archive stores full result documents beyond the bounded history.
package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

// Backend defines the type of archive backend
type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
	BackendMinIO Backend = "minio"
)

// Archiver persists completed results as standalone documents. The
// bounded run history rotates old results out; the archive keeps them.
type Archiver interface {
	Archive(ctx context.Context, result model.TestResult) error
	List(ctx context.Context, testID string) ([]string, error)
}

// Config holds configuration for result archiving
type Config struct {
	Backend Backend

	// Local storage config
	LocalPath string

	// S3/MinIO config
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// DefaultConfig returns default archive configuration
func DefaultConfig() *Config {
	return &Config{
		Backend:   BackendLocal,
		LocalPath: "/var/lib/loadtest/results",
		Region:    "us-east-1",
		Bucket:    "loadtest-results",
	}
}

// Storage archives results to the configured backend
type Storage struct {
	config   *Config
	s3Client *s3.Client
}

var _ Archiver = (*Storage)(nil)

// NewStorage creates a new result archive instance
func NewStorage(cfg *Config) (*Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Storage{config: cfg}

	switch cfg.Backend {
	case BackendLocal:
		// Ensure local directory exists
		if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
		slog.Info("Initialized local result archive", "path", cfg.LocalPath)

	case BackendS3, BackendMinIO:
		client, err := s.createS3Client()
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		slog.Info("Initialized S3/MinIO result archive",
			"endpoint", cfg.Endpoint,
			"bucket", cfg.Bucket,
		)
	default:
		return nil, fmt.Errorf("unsupported archive backend: %s", cfg.Backend)
	}

	return s, nil
}

// createS3Client creates an S3 client for S3 or MinIO
func (s *Storage) createS3Client() (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error

	opts = append(opts, config.WithRegion(s.config.Region))

	// Use static credentials if provided
	if s.config.AccessKeyID != "" && s.config.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s.config.AccessKeyID,
				s.config.SecretAccessKey,
				"",
			),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Create S3 client with custom endpoint for MinIO
	clientOpts := []func(*s3.Options){}
	if s.config.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s.config.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		})
	}

	return s3.NewFromConfig(cfg, clientOpts...), nil
}

// Archive writes the result as a JSON document named after the run.
func (s *Storage) Archive(ctx context.Context, result model.TestResult) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	name := objectName(result)
	switch s.config.Backend {
	case BackendLocal:
		return s.archiveLocal(result.TestID, name, payload)
	case BackendS3, BackendMinIO:
		return s.archiveS3(ctx, result.TestID, name, payload)
	default:
		return fmt.Errorf("unsupported archive backend: %s", s.config.Backend)
	}
}

// objectName builds a per-run document name that sorts chronologically.
func objectName(result model.TestResult) string {
	return fmt.Sprintf("%s_%s.json", result.StartTime.UTC().Format("20060102T150405Z"), result.RunID)
}

// archiveLocal writes the result document to the local filesystem
func (s *Storage) archiveLocal(testID, name string, payload []byte) error {
	dir := filepath.Join(s.config.LocalPath, testID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}

	slog.Info("Archived result locally",
		"path", path,
		"size_bytes", len(payload),
		"checksum", calculateChecksum(payload),
	)
	return nil
}

// archiveS3 uploads the result document to S3/MinIO
func (s *Storage) archiveS3(ctx context.Context, testID, name string, payload []byte) error {
	key := fmt.Sprintf("results/%s/%s", testID, name)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(payload))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload result to S3: %w", err)
	}

	slog.Info("Archived result in S3",
		"path", fmt.Sprintf("s3://%s/%s", s.config.Bucket, key),
		"size_bytes", len(payload),
		"checksum", calculateChecksum(payload),
	)
	return nil
}

// List returns the archived document paths for one test, oldest first.
func (s *Storage) List(ctx context.Context, testID string) ([]string, error) {
	switch s.config.Backend {
	case BackendLocal:
		return s.listLocal(testID)
	case BackendS3, BackendMinIO:
		return s.listS3(ctx, testID)
	default:
		return nil, fmt.Errorf("unsupported archive backend: %s", s.config.Backend)
	}
}

// listLocal lists archived documents from the local filesystem
func (s *Storage) listLocal(testID string) ([]string, error) {
	dir := filepath.Join(s.config.LocalPath, testID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list archive directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// listS3 lists archived documents from S3/MinIO
func (s *Storage) listS3(ctx context.Context, testID string) ([]string, error) {
	prefix := fmt.Sprintf("results/%s/", testID)

	result, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 archive: %w", err)
	}

	var paths []string
	for _, obj := range result.Contents {
		if obj.Key != nil {
			paths = append(paths, fmt.Sprintf("s3://%s/%s", s.config.Bucket, *obj.Key))
		}
	}
	return paths, nil
}

// calculateChecksum calculates SHA256 checksum of data
func calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
