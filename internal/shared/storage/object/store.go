package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for archiving and retrieving generator
// transcripts. Objects are namespaced per couple.
type ObjectStore interface {
	Save(ctx context.Context, coupleID string, name string, r io.Reader) (storageKey string, sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
