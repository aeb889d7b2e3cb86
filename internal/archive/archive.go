// Package archive persists completed run reports to a blob store so they
// can be fetched after the originating request has returned
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/opsline/engine/pkg/api"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// BlobArchive stores reports via gocloud.dev/blob, supporting S3, GCS,
// Azure Blob Storage, and S3-compatible stores
type BlobArchive struct {
	bucket *blob.Bucket
	prefix string
}

// ErrReportNotFound is returned by Get for unknown run IDs
var ErrReportNotFound = errors.New("report not found")

// New opens the bucket named by bucketURL. Keys are namespaced under the
// given prefix
func New(
	ctx context.Context, bucketURL, prefix string,
) (*BlobArchive, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("opening archive bucket: %w", err)
	}
	return &BlobArchive{bucket: bucket, prefix: prefix}, nil
}

// Put stores the report under its run ID, overwriting any previous version
func (a *BlobArchive) Put(ctx context.Context, rep *api.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return a.bucket.WriteAll(ctx, a.keyFor(rep.RunID), data, nil)
}

// Get fetches the report stored under the given run ID
func (a *BlobArchive) Get(
	ctx context.Context, runID api.RunID,
) (*api.Report, error) {
	data, err := a.bucket.ReadAll(ctx, a.keyFor(runID))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, runID)
		}
		return nil, err
	}

	var rep api.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (a *BlobArchive) Close() error {
	return a.bucket.Close()
}

func (a *BlobArchive) keyFor(runID api.RunID) string {
	return a.prefix + string(runID) + ".json"
}
