// Package s3 uploads committed extracts to an S3-compatible bucket so the
// reporting layer can pick them up from object storage.
package s3

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/josefarias3108/projeto-jus/internal/export"
)

// Config selects the destination. Endpoint is set for S3-compatible stores
// (MinIO, R2) and switches to path-style addressing. Static credentials are
// used when both keys are set; otherwise the default AWS chain applies.
type Config struct {
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"-"`
	SecretAccessKey string `json:"-"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool { return strings.TrimSpace(c.Bucket) != "" }

// Uploader is the subset of the S3 client the publisher needs.
type Uploader interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// Publisher uploads extract files.
type Publisher struct {
	client Uploader
	cfg    Config
}

// New builds an S3 client from cfg and the ambient AWS configuration.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3: bucket must not be empty")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load AWS config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client Uploader, cfg Config) *Publisher {
	return &Publisher{client: client, cfg: cfg}
}

// ObjectKey is prefix/runID/name with empty segments dropped.
func ObjectKey(prefix, runID, name string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{strings.Trim(prefix, "/"), runID, name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return path.Join(parts...)
}

// maxConcurrentUploads bounds in-flight PutObject calls.
const maxConcurrentUploads = 4

// Publish uploads files under prefix/runID/ and returns their s3:// URIs in
// the same order. The first failure cancels the remaining uploads and no
// URIs are returned.
func (p *Publisher) Publish(ctx context.Context, runID string, files []export.File) ([]string, error) {
	uris := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)
	for i, f := range files {
		g.Go(func() error {
			key := ObjectKey(p.cfg.Prefix, runID, f.Name)
			if err := p.put(gctx, key, f, runID); err != nil {
				return fmt.Errorf("s3: upload %s: %w", f.Name, err)
			}
			uris[i] = fmt.Sprintf("s3://%s/%s", p.cfg.Bucket, key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return uris, nil
}

func (p *Publisher) put(ctx context.Context, key string, f export.File, runID string) error {
	body, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer body.Close()

	contentType := "text/csv; charset=utf-8"
	if strings.HasSuffix(f.Name, ".xlsx") {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	meta := map[string]string{"run-id": runID}
	if f.Checksum != "" {
		meta["xxh3"] = f.Checksum
	}
	_, err = p.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(p.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(f.Bytes),
		ContentType:   aws.String(contentType),
		Metadata:      meta,
	})
	return err
}
