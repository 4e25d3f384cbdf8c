// Package s3 writes artifacts to an S3 compatible bucket.
package s3

import (
	"context"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/c360/target-singer-jsonl/errors"
	"github.com/c360/target-singer-jsonl/storage"
)

// Config locates the bucket and configures the client.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Opener uploads each artifact as a single object.
type Opener struct {
	uploader *manager.Uploader
	bucket   string
	metadata map[string]string
	logger   *slog.Logger
}

// Option configures an Opener.
type Option func(*Opener)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opener) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetadata attaches user metadata to every uploaded object.
func WithMetadata(md map[string]string) Option {
	return func(o *Opener) {
		o.metadata = md
	}
}

// NewClient builds an S3 client from cfg. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg Config) (*awss3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.WrapInvalid(err, "s3", "NewClient", "load aws config")
	}

	return awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// NewOpener creates an Opener writing into bucket through client.
func NewOpener(client manager.UploadAPIClient, bucket string, opts ...Option) *Opener {
	o := &Opener{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open starts a streaming upload for t. The object becomes visible only when
// the returned Writer's Close succeeds.
func (o *Opener) Open(ctx context.Context, t storage.Target) (storage.Writer, error) {
	input := &awss3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(t.Key),
		ContentType: aws.String(t.ContentType()),
		Metadata:    o.metadata,
	}
	if enc := t.ContentEncoding(); enc != "" {
		input.ContentEncoding = aws.String(enc)
	}

	return storage.NewPipeWriter(ctx, t.Compression, func(ctx context.Context, body io.Reader) error {
		input.Body = body
		out, err := o.uploader.Upload(ctx, input)
		if err != nil {
			return errors.WrapTransient(err, "s3", "Open", "upload "+t.URI())
		}
		o.logger.Debug("Uploaded object", "bucket", o.bucket, "key", t.Key, "location", out.Location)
		return nil
	}), nil
}
