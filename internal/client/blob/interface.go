// Package blob stores file attachments in an object store and validates
// them before upload.
package blob

import "context"

// Uploader stores a blob under a key and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType, key string) (string, error)
}
