// Package artifact uploads rendered run outputs to S3-compatible object
// storage.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/henrybloomingdale/biofan/internal/output"
	"github.com/henrybloomingdale/biofan/internal/research"
)

// Config locates the bucket.
type Config struct {
	Endpoint string
	Region   string
	Bucket   string
	Key      string
	Secret   string
}

// ObjectPutter is the subset of the S3 client used here.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes objects into one bucket.
type Uploader struct {
	client ObjectPutter
	bucket string
	base   string
	logger *zap.Logger
}

// NewS3Client builds a client for cfg. A custom endpoint switches to
// path-style addressing, which most S3-compatible stores require.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.Key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// New creates an Uploader. base is used to build returned links; when
// empty an s3:// URI is returned instead.
func New(client ObjectPutter, bucket, base string, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{client: client, bucket: bucket, base: strings.TrimRight(base, "/"), logger: logger}
}

// Upload stores data under key and returns its link.
func (u *Uploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	u.logger.Debug("artifact uploaded", zap.String("bucket", u.bucket), zap.String("key", key), zap.Int("bytes", len(data)))
	if u.base == "" {
		return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
	}
	return fmt.Sprintf("%s/%s/%s", u.base, u.bucket, key), nil
}

// Content types of run artifacts.
const (
	ContentJSON     = "application/json"
	ContentMarkdown = "text/markdown; charset=utf-8"
	ContentCSV      = "text/csv; charset=utf-8"
	ContentRIS      = "application/x-research-info-systems"
)

// UploadRun renders a research result and uploads it under
// runs/<run id>/: result.json, quality.md, literature.ris and one CSV per
// table. It returns the links keyed by file name and stops at the first
// failed upload.
func (u *Uploader) UploadRun(ctx context.Context, res *research.Result) (map[string]string, error) {
	files, err := renderRun(res)
	if err != nil {
		return nil, err
	}
	prefix := path.Join("runs", res.RunID)
	links := make(map[string]string, len(files))
	for _, f := range files {
		link, err := u.Upload(ctx, path.Join(prefix, f.name), f.contentType, f.data)
		if err != nil {
			return links, err
		}
		links[f.name] = link
	}
	u.logger.Info("run artifacts uploaded", zap.String("run_id", res.RunID), zap.Int("files", len(links)))
	return links, nil
}

type file struct {
	name        string
	contentType string
	data        []byte
}

func renderRun(res *research.Result) ([]file, error) {
	var files []file

	js, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	files = append(files, file{"result.json", ContentJSON, js})

	var md bytes.Buffer
	if err := output.WriteQualityMarkdown(&md, res.Report); err != nil {
		return nil, fmt.Errorf("rendering quality report: %w", err)
	}
	files = append(files, file{"quality.md", ContentMarkdown, md.Bytes()})

	if len(res.Dataset.Literature) > 0 {
		var ris bytes.Buffer
		if err := output.WriteRIS(&ris, res.Dataset.Literature); err != nil {
			return nil, fmt.Errorf("rendering RIS: %w", err)
		}
		files = append(files, file{"literature.ris", ContentRIS, ris.Bytes()})
	}

	for _, t := range output.Tables(res.Dataset) {
		var buf bytes.Buffer
		if err := output.WriteCSV(&buf, t.Rows); err != nil {
			return nil, fmt.Errorf("rendering %s: %w", t.Name, err)
		}
		files = append(files, file{t.Name, ContentCSV, buf.Bytes()})
	}
	return files, nil
}
