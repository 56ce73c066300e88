package pingstore

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// GCSBackend lists and fetches pings from a Google Cloud Storage bucket,
// authenticated via Application Default Credentials.
type GCSBackend struct {
	Bucket string
	client *storage.Client
}

func NewGCSBackend(ctx context.Context, bucket string) (*GCSBackend, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "pingstore: new GCS client")
	}
	return &GCSBackend{Bucket: bucket, client: client}, nil
}

func (b *GCSBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := b.client.Bucket(b.Bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "pingstore: gcs list")
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

func (b *GCSBackend) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := b.client.Bucket(b.Bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "pingstore: gcs open %s", key)
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "pingstore: gcs read %s", key)
	}
	return body, nil
}
