package storage

import "context"

// MediaStore uploads local files to an external media host and returns the
// public URL. The caller owns the local file and is responsible for removing
// it whether the upload succeeds or fails.
type MediaStore interface {
	Upload(ctx context.Context, localPath, contentType string) (string, error)
}
