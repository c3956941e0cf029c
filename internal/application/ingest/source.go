package ingest

import (
	"context"
	"io"
	"os"

	"github.com/turtacn/trademark-search/internal/infrastructure/storage/minio"
	"github.com/turtacn/trademark-search/pkg/errors"
)

// Source yields a dataset to load.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource reads a local file.
type FileSource struct {
	Path string
}

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIngest, "failed to open dataset").WithDetail(s.Path)
	}
	return f, nil
}

func (s FileSource) String() string { return "file://" + s.Path }

// ObjectOpener opens objects by key.  *minio.Client implements it.
type ObjectOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, *minio.ObjectInfo, error)
	Bucket() string
}

// ObjectSource reads an object from the dataset bucket.
type ObjectSource struct {
	Store ObjectOpener
	Key   string
}

func (s ObjectSource) Open(ctx context.Context) (io.ReadCloser, error) {
	rc, _, err := s.Store.Open(ctx, s.Key)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func (s ObjectSource) String() string { return "s3://" + s.Store.Bucket() + "/" + s.Key }
