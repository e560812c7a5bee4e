package library

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// ThumbnailSize is the bounding box of page thumbnails
const ThumbnailSize = 64

// Thumbnail scales a page image to fit a size x size box, keeping its
// aspect ratio, and encodes it as JPEG
func Thumbnail(data []byte, size int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	thumb := imaging.Fit(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
