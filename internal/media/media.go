// Package media converts between the wire forms of an image (raw bytes,
// data URLs, base64 snapshot refs) and decodes them for resizing and PDF
// embedding.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"path/filepath"
	"strings"

	"roomcraft/internal/snapshot"
)

var (
	ErrUnsupportedType = errors.New("media: unsupported image type")
	ErrBadDataURL      = errors.New("media: malformed data URL")
)

// supported are the content types the analysis backend accepts.
var supported = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var extTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// FromBytes sniffs the content type of raw image data and returns an
// inline ref. The filename is a fallback for formats http.DetectContentType
// cannot identify.
func FromBytes(data []byte, filename string) (snapshot.ImageRef, error) {
	if len(data) == 0 {
		return snapshot.ImageRef{}, fmt.Errorf("%w: empty payload", ErrUnsupportedType)
	}
	ct := http.DetectContentType(data)
	if !supported[ct] {
		if byExt, ok := extTypes[strings.ToLower(filepath.Ext(filename))]; ok {
			ct = byExt
		}
	}
	if !supported[ct] {
		return snapshot.ImageRef{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return snapshot.ImageRef{
		MIMEType: ct,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// ParseDataURL splits a "data:image/...;base64,..." URL into a ref.
func ParseDataURL(url string) (snapshot.ImageRef, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return snapshot.ImageRef{}, ErrBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return snapshot.ImageRef{}, ErrBadDataURL
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return snapshot.ImageRef{}, fmt.Errorf("%w: encoding %q", ErrBadDataURL, enc)
	}
	if !supported[mime] {
		return snapshot.ImageRef{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return snapshot.ImageRef{}, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return snapshot.ImageRef{MIMEType: mime, Data: payload}, nil
}

// DataURL renders a ref back into a browser-displayable data URL.
func DataURL(ref snapshot.ImageRef) string {
	return "data:" + ref.MIMEType + ";base64," + ref.Data
}

// DecodeBytes returns the raw image bytes of a ref.
func DecodeBytes(ref snapshot.ImageRef) ([]byte, error) {
	return base64.StdEncoding.DecodeString(ref.Data)
}

// DecodeRef decodes a ref into a pixel image.
func DecodeRef(ref snapshot.ImageRef) (image.Image, error) {
	raw, err := DecodeBytes(ref)
	if err != nil {
		return nil, fmt.Errorf("media: decode base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("media: decode image: %w", err)
	}
	return img, nil
}
