package pingstore

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/pkg/errors"
)

// Account credentials follow the same env vars as the teacher's own Azure
// backend adapter (AZURE_STORAGE_ACCOUNT / AZURE_STORAGE_KEY), so one set
// of Azure credentials serves both the storage backend and (if ever
// deployed alongside it) an AIStore cluster.
const (
	azAccNameEnvVar = "AZURE_STORAGE_ACCOUNT"
	azAccKeyEnvVar  = "AZURE_STORAGE_KEY"
)

// AzureBackend lists and fetches pings from one Azure Blob container.
type AzureBackend struct {
	Container string
	endpoint  string
	creds     *azblob.SharedKeyCredential
}

func NewAzureBackend(container string) (*AzureBackend, error) {
	accName := os.Getenv(azAccNameEnvVar)
	creds, err := azblob.NewSharedKeyCredential(accName, os.Getenv(azAccKeyEnvVar))
	if err != nil {
		return nil, errors.Wrap(err, "pingstore: azure credentials")
	}
	return &AzureBackend{
		Container: container,
		endpoint:  "https://" + accName + ".blob.core.windows.net",
		creds:     creds,
	}, nil
}

func (b *AzureBackend) List(ctx context.Context, prefix string) ([]string, error) {
	cntURL := b.endpoint + "/" + b.Container
	client, err := container.NewClientWithSharedKeyCredential(cntURL, b.creds, nil)
	if err != nil {
		return nil, errors.Wrap(err, "pingstore: azure container client")
	}
	var keys []string
	pager := client.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "pingstore: azure list page")
		}
		for _, item := range page.Segment.BlobItems {
			keys = append(keys, *item.Name)
		}
	}
	return keys, nil
}

func (b *AzureBackend) Get(ctx context.Context, key string) ([]byte, error) {
	blobURL := b.endpoint + "/" + b.Container + "/" + key
	client, err := blockblob.NewClientWithSharedKeyCredential(blobURL, b.creds, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "pingstore: azure blob client %s", key)
	}
	resp, err := client.DownloadStream(ctx, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "pingstore: azure download %s", key)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, errors.Wrapf(err, "pingstore: azure read %s", key)
	}
	return buf.Bytes(), nil
}
