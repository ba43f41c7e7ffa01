// Package imaging shrinks image attachments before upload. Photos
// straight off a camera are routinely many megabytes; recompressing them
// keeps chat uploads fast without visibly hurting quality.
package imaging

import (
	"bytes"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// compressThreshold: images below this size are sent as-is.
	compressThreshold = 300 * 1024
	// maxCompressedSize is the 1.2MB target for the recompressed image.
	maxCompressedSize = 1_258_291
	// maxDimension caps the longer image side.
	maxDimension = 1600

	startQuality = 85
	minQuality   = 40
	qualityStep  = 10
)

// IsImage reports whether a content type denotes an image.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// Compress recompresses an image to at most maxDimension on its longer
// side, aiming for maxCompressedSize bytes. Non-images, SVGs and images
// below the threshold pass through unchanged. Any decode or encode
// failure falls back to the original bytes; sending the full-size file
// beats failing the send.
//
// The returned content type is "image/jpeg" when recompression happened
// and the input type otherwise.
func Compress(data []byte, contentType string) ([]byte, string) {
	if !strings.HasPrefix(contentType, "image/") || contentType == "image/svg+xml" {
		return data, contentType
	}
	if len(data) < compressThreshold {
		return data, contentType
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, contentType
	}

	src = scaleDown(src)

	encoded, err := encodeUnderCap(src)
	if err != nil || len(encoded) >= len(data) {
		return data, contentType
	}
	return encoded, "image/jpeg"
}

// scaleDown resizes src so its longer side is at most maxDimension,
// preserving the aspect ratio.
func scaleDown(src image.Image) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= maxDimension {
		return src
	}

	scale := float64(maxDimension) / float64(longer)
	dst := image.NewRGBA(image.Rect(0, 0,
		int(float64(w)*scale+0.5), int(float64(h)*scale+0.5)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

// encodeUnderCap encodes src as JPEG, lowering quality stepwise until the
// result fits the size cap or the quality floor is reached. The last
// attempt is returned even when it is still over the cap.
func encodeUnderCap(src image.Image) ([]byte, error) {
	var buf bytes.Buffer
	for quality := startQuality; ; quality -= qualityStep {
		buf.Reset()
		if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
		if buf.Len() <= maxCompressedSize || quality-qualityStep < minQuality {
			return buf.Bytes(), nil
		}
	}
}
