package export

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// Sink stores rendered documents by name.
type Sink interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Name() string
}

// FSSink writes documents into a directory.
type FSSink struct {
	dir string
}

// NewFSSink creates dir if needed.
func NewFSSink(dir string) (*FSSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &FSSink{dir: dir}, nil
}

func (s *FSSink) Name() string { return types.SinkFS }

// Dir returns the target directory.
func (s *FSSink) Dir() string { return s.dir }

// Put writes data to <dir>/<name> through a temp file and rename.
func (s *FSSink) Put(_ context.Context, name string, data []byte, _ string) error {
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// S3Config selects the bucket and optional S3-compatible endpoint.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	// ConfigOptions are appended to the default AWS config loaders.
	ConfigOptions []func(*config.LoadOptions) error
}

// S3Sink uploads documents as objects in one bucket.
type S3Sink struct {
	client *s3.Client
	bucket string
}

// NewS3Sink loads the default AWS config chain and builds a client. A
// custom endpoint switches to path-style addressing for MinIO and friends.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, types.ErrBucketRequired
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := append([]func(*config.LoadOptions) error{config.WithRegion(region)}, cfg.ConfigOptions...)
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &S3Sink{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3Sink) Name() string { return types.SinkS3 }

// Put uploads data under key name, replacing any existing object.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, name, err)
	}
	return nil
}

// MemorySink keeps documents in memory.
type MemorySink struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink { return &MemorySink{docs: make(map[string][]byte)} }

func (s *MemorySink) Name() string { return "memory" }

func (s *MemorySink) Put(_ context.Context, name string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = bytes.Clone(data)
	return nil
}

// Get returns a stored document.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.docs[name]
	return v, ok
}

// Names returns stored document names, sorted.
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.docs))
	for k := range s.docs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// OpenSink builds the sink selected by cfg.Sink.
func OpenSink(ctx context.Context, cfg types.ExportConfig) (Sink, error) {
	switch cfg.Sink {
	case "", types.SinkFS:
		return NewFSSink(cfg.Dir)
	case types.SinkS3:
		return NewS3Sink(ctx, S3Config{Bucket: cfg.Bucket, Region: cfg.Region, Endpoint: cfg.Endpoint})
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrSinkUnknown, cfg.Sink)
	}
}
