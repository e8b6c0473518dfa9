package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"roomcraft/internal/snapshot"
)

// Downsample re-encodes ref as JPEG with its longest side capped at
// maxDim. Images already within the cap are still re-encoded, which keeps
// stored project sizes predictable. quality follows jpeg.Options (1-100).
func Downsample(ref snapshot.ImageRef, maxDim, quality int) (snapshot.ImageRef, error) {
	src, err := DecodeRef(ref)
	if err != nil {
		return snapshot.ImageRef{}, err
	}
	dst := scaleToFit(src, maxDim)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return snapshot.ImageRef{}, fmt.Errorf("media: encode jpeg: %w", err)
	}
	return snapshot.ImageRef{
		MIMEType: "image/jpeg",
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Thumbnail is Downsample tuned for list views.
func Thumbnail(ref snapshot.ImageRef, maxDim int) (snapshot.ImageRef, error) {
	return Downsample(ref, maxDim, 70)
}

func scaleToFit(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return src
	}
	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
