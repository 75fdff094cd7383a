package imaging

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// hashQuality is the JPEG quality used when re-encoding pixel content for
// hashing. The hash must stay stable across file renames, so it is
// computed from decoded pixels, never from the file name or raw bytes.
const hashQuality = 85

// ContentHash returns the MD5 of the image's re-encoded pixel content,
// after EXIF orientation correction so that the upright pixels define the
// identity. Images whose pixels cannot be decoded (HEIC, corrupt files)
// fall back to hashing the raw bytes; the second return reports whether
// the hash is pixel-based.
func ContentHash(path string, orientation int) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to read image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		sum := md5.Sum(data)
		return hex.EncodeToString(sum[:]), false, nil
	}
	if orientation != 1 {
		img = CorrectOrientation(img, orientation)
	}

	h := md5.New()
	if err := jpeg.Encode(h, img, &jpeg.Options{Quality: hashQuality}); err != nil {
		return "", false, fmt.Errorf("failed to re-encode image: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), true, nil
}

// CorrectOrientation maps source pixels to their upright positions for
// EXIF orientations 2-8. Orientation 1 and unknown values return the
// image unchanged.
func CorrectOrientation(img image.Image, orientation int) image.Image {
	if orientation < 2 || orientation > 8 {
		return img
	}

	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	// Destination coordinates for a source pixel (x, y); orientations
	// 5-8 swap the image dimensions.
	var dst func(x, y int) (int, int)
	swapped := false
	switch orientation {
	case 2:
		dst = func(x, y int) (int, int) { return w - 1 - x, y }
	case 3:
		dst = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case 4:
		dst = func(x, y int) (int, int) { return x, h - 1 - y }
	case 5:
		dst = func(x, y int) (int, int) { return y, x }
		swapped = true
	case 6:
		dst = func(x, y int) (int, int) { return h - 1 - y, x }
		swapped = true
	case 7:
		dst = func(x, y int) (int, int) { return h - 1 - y, w - 1 - x }
		swapped = true
	case 8:
		dst = func(x, y int) (int, int) { return y, w - 1 - x }
		swapped = true
	}

	outW, outH := w, h
	if swapped {
		outW, outH = h, w
	}
	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := dst(x, y)
			out.Set(dx, dy, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return out
}

// Thumbnail decodes the image, applies orientation correction, and scales
// it to fit within maxDim on both axes, preserving aspect ratio. Images
// already within the limit are returned oriented but unscaled.
func Thumbnail(path string, orientation, maxDim int) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if orientation != 1 {
		img = CorrectOrientation(img, orientation)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return img, nil
	}

	scaleX := float64(maxDim) / float64(width)
	scaleY := float64(maxDim) / float64(height)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth > maxDim {
		newWidth = maxDim
	}
	if newHeight > maxDim {
		newHeight = maxDim
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)
	return scaled, nil
}
