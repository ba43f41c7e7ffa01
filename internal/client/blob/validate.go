package blob

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxFileSize is the upload cap, applied after any image recompression.
const MaxFileSize = 50 * 1024 * 1024

var (
	ErrFileTooLarge        = errors.New("file exceeds the 50MB limit")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// allowedFileTypes is the non-image allow-list. Any image/* content type
// is accepted without being listed here.
var allowedFileTypes = []string{
	// documents
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain",
	"text/csv",
	// archives
	"application/zip",
	"application/x-rar-compressed",
	"application/x-7z-compressed",
	// audio
	"audio/mpeg",
	"audio/wav",
	"audio/ogg",
	"audio/webm",
	"audio/aac",
	"audio/mp4",
	// video
	"video/mp4",
	"video/webm",
	"video/quicktime",
}

// Validate checks an upload candidate against the size cap and the
// content-type allow-list.
func Validate(size int64, contentType string) error {
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	if strings.HasPrefix(contentType, "image/") {
		return nil
	}
	if !slices.Contains(allowedFileTypes, contentType) {
		return ErrUnsupportedFileType
	}
	return nil
}

// ObjectKey builds a collision-free storage key scoped to the uploading
// user, keeping the original file extension.
func ObjectKey(userID, fileName string) string {
	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d_%s.%s", userID, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}
