package report

import (
	"image"
	"image/draw"
	"image/jpeg"

	"seehuhn.de/go/pdf"
)

// jpegImage embeds a decoded image as a DCT-encoded image XObject.
type jpegImage struct {
	src     image.Image
	quality int
}

func (im *jpegImage) Subtype() pdf.Name { return "Image" }

func (im *jpegImage) Embed(rm *pdf.ResourceManager) (pdf.Native, pdf.Unused, error) {
	var zero pdf.Unused

	quality := im.quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	b := im.src.Bounds()
	rgb := image.NewNRGBA(b)
	draw.Draw(rgb, rgb.Bounds(), im.src, b.Min, draw.Src)

	dict := pdf.Dict{
		"Type":             pdf.Name("XObject"),
		"Subtype":          pdf.Name("Image"),
		"Width":            pdf.Integer(b.Dx()),
		"Height":           pdf.Integer(b.Dy()),
		"ColorSpace":       pdf.Name("DeviceRGB"),
		"BitsPerComponent": pdf.Integer(8),
		"Filter":           pdf.Name("DCTDecode"),
	}

	ref := rm.Out.Alloc()
	stm, err := rm.Out.OpenStream(ref, dict)
	if err != nil {
		return nil, zero, err
	}
	if err := jpeg.Encode(stm, rgb, &jpeg.Options{Quality: quality}); err != nil {
		return nil, zero, err
	}
	if err := stm.Close(); err != nil {
		return nil, zero, err
	}
	return ref, zero, nil
}
