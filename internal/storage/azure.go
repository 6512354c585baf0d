package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/sirupsen/logrus"
)

// AzureArchive writes long-term JSON snapshots (purged history, generated
// summaries) to Azure Blob Storage. The archive is optional: when no storage
// account is configured the retention job simply purges without archiving.
type AzureArchive struct {
	client        *azblob.Client
	containerName string
}

// Ensure AzureArchive implements ArchiveInterface
var _ ArchiveInterface = (*AzureArchive)(nil)

// NewAzureArchive creates an archive client authenticated via the default
// credential chain (managed identity in production).
func NewAzureArchive(accountName, containerName string) (*AzureArchive, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	archive := &AzureArchive{
		client:        client,
		containerName: containerName,
	}

	if err := archive.ensureContainer(); err != nil {
		return nil, fmt.Errorf("failed to ensure archive container: %w", err)
	}

	return archive, nil
}

func (a *AzureArchive) ensureContainer() error {
	_, err := a.client.CreateContainer(context.Background(), a.containerName, nil)
	if err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Archive container %s already exists", a.containerName)
		return nil
	}

	logrus.Infof("Created archive container %s", a.containerName)
	return nil
}

// Store uploads an archive snapshot under the given blob name.
func (a *AzureArchive) Store(name string, data []byte) error {
	_, err := a.client.UploadBuffer(context.Background(), a.containerName, name, data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024 * 1024),
		Concurrency: 3,
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive blob %s: %w", name, err)
	}

	logrus.Infof("Archived %s (%d bytes)", name, len(data))
	return nil
}

// Retrieve downloads a previously archived snapshot.
func (a *AzureArchive) Retrieve(name string) ([]byte, error) {
	response, err := a.client.DownloadStream(context.Background(), a.containerName, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download archive blob %s: %w", name, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive blob %s: %w", name, err)
	}

	return data, nil
}

// List returns archived blob names with the given prefix.
func (a *AzureArchive) List(prefix string) ([]string, error) {
	var names []string

	pager := a.client.NewListBlobsFlatPager(a.containerName, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to list archive blobs: %w", err)
		}
		for _, blob := range page.Segment.BlobItems {
			if blob.Name != nil {
				names = append(names, *blob.Name)
			}
		}
	}

	return names, nil
}
