// Package media decodes screen captures sent by interview clients.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrDecode is returned for payloads that are not a decodable image.
var ErrDecode = errors.New("media: decode failed")

// Formats the reasoning model accepts without re-encoding.
var passthroughFormats = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
}

// Image is a decoded screen capture.
type Image struct {
	Raster image.Image
	Format string
	Data   []byte
}

// Decode parses a data-URI style payload. Everything up to and including
// the first comma is discarded; without a comma the whole string is the
// base64 body.
func Decode(payload string) (*Image, error) {
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	raster, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return &Image{Raster: raster, Format: format, Data: data}, nil
}

func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// MIMEType reports the MIME type of the original container.
func (img *Image) MIMEType() string {
	return "image/" + img.Format
}

// Payload returns bytes and a MIME type the reasoning model accepts. Formats
// outside the passthrough set are re-encoded as PNG.
func (img *Image) Payload() ([]byte, string, error) {
	if mime, ok := passthroughFormats[img.Format]; ok {
		return img.Data, mime, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Raster); err != nil {
		return nil, "", fmt.Errorf("re-encode %s as png: %w", img.Format, err)
	}
	return buf.Bytes(), "image/png", nil
}

// Bounds returns the pixel dimensions of the capture.
func (img *Image) Bounds() (width, height int) {
	b := img.Raster.Bounds()
	return b.Dx(), b.Dy()
}
