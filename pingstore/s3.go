package pingstore

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// S3Backend lists and fetches pings from an S3 (or S3-compatible) bucket.
// Credentials come from the default AWS chain (env vars, shared config,
// IAM role) the same as every other S3 client; this package never handles
// keys directly.
type S3Backend struct {
	Bucket string
	client *s3.Client
}

// NewS3Backend loads the default AWS config and constructs a ready client.
func NewS3Backend(ctx context.Context, bucket string) (*S3Backend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "pingstore: load AWS config")
	}
	return &S3Backend{Bucket: bucket, client: s3.NewFromConfig(cfg)}, nil
}

func (b *S3Backend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: &b.Bucket,
		Prefix: &prefix,
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "pingstore: s3 list page")
		}
		for _, obj := range page.Contents {
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}

func (b *S3Backend) Get(ctx context.Context, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)
	downloader := manager.NewDownloader(b.client)
	if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: &b.Bucket,
		Key:    &key,
	}); err != nil {
		return nil, errors.Wrapf(err, "pingstore: s3 get %s", key)
	}
	return buf.Bytes(), nil
}
