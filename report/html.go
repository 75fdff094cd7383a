package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"vistoria/models"
)

// HTMLFileName is the fixed name of the HTML report inside the image
// directory.
const HTMLFileName = "PYGeoDMA.html"

// WriteHTML writes the HTML companion report next to the images. Entries
// follow the same order and filtering as the PDF.
func WriteHTML(dir string, p *Params) error {
	var b strings.Builder

	b.WriteString("<html><head><meta charset='UTF-8'></head><body>")
	b.WriteString(fmt.Sprintf(
		"<p style='text-align: center; text-transform: uppercase; margin: 0;'>%s<br>%s</p>",
		p.HeaderLine1, p.HeaderLine2))
	b.WriteString(fmt.Sprintf(
		"<p style='text-align: center; text-transform: uppercase; font-weight: bold; margin: 10px 0 20px 0;'>%s</p>",
		p.ReportTitle))
	if p.ReportDate != "" {
		b.WriteString(fmt.Sprintf("<p style='text-align: center; margin: 0;'>Data do Relatório: %s</p>", p.ReportDate))
	}
	if p.Contract != "" {
		b.WriteString(fmt.Sprintf("<p style='text-align: center; margin: 0;'>Contrato No: %s</p>", p.Contract))
	}
	if p.FiscalName != "" {
		b.WriteString(fmt.Sprintf("<p><strong>Nome do Fiscal:</strong> %s</p>", p.FiscalName))
	}

	b.WriteString("<ul style='list-style-type: none; padding: 0;'>")
	for i, e := range p.Entries {
		if p.Progress != nil {
			p.Progress(i+1, len(p.Entries))
		}
		writeHTMLEntry(&b, e, p)
	}
	b.WriteString("</ul></body></html>")

	path := filepath.Join(dir, HTMLFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Infof("html report written to %s", path)
	return nil
}

func writeHTMLEntry(b *strings.Builder, e Entry, p *Params) {
	photo := e.Photo

	b.WriteString("<li style='margin-bottom:40px;'>")
	if thumb, w, h := htmlThumbnail(e, p.JPEGQuality); thumb != "" {
		b.WriteString(fmt.Sprintf(
			"<a href='%s' target='_blank'>"+
				"<img src='data:image/jpeg;base64,%s' width='%d' height='%d' "+
				"style='float:left; margin-right:20px; margin-bottom:10px;' alt='Thumbnail'>"+
				"</a>",
			photo.Name, thumb, w, h))
	}
	b.WriteString("<hr style='border: 0; height: 1px; background-color: #cccccc; margin: 20px 0;'><br>")
	b.WriteString(fmt.Sprintf("<strong>%s</strong><br>", entryNumber(photo.Name)))

	taken := "Data/Hora desconhecida"
	if !photo.TakenAt.IsZero() {
		taken = photo.TakenAt.Format("02/01/2006 15:04:05")
	}
	b.WriteString(fmt.Sprintf("<strong>Data e hora da imagem:</strong> %s<br>", taken))

	kind := zoneKindLabel(photo.ZoneKind)
	if photo.HasGPS && photo.Distance > 0 {
		b.WriteString(fmt.Sprintf("<strong>Próximo de:</strong> %s %s, <strong>Sigla:</strong> %s<br>",
			kind, photo.ZoneID, photo.Sigla))
	} else {
		b.WriteString(fmt.Sprintf("<strong>%s:</strong> %s, <strong>Sigla:</strong> %s<br>",
			kind, photo.ZoneID, photo.Sigla))
	}

	b.WriteString("<strong>Localização:</strong> ")
	if url := MapsURL(photo); url != "" {
		b.WriteString(fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`, url, url))
	} else {
		b.WriteString(models.NoLocation)
	}

	if !p.DisableStates {
		status := photo.Status
		if status == "" {
			status = models.StatusNotDone
		}
		b.WriteString(fmt.Sprintf("<br/><strong>Estado:</strong> %s<br/>", status))
	}
	if photo.Comment != "" {
		b.WriteString(fmt.Sprintf("<p><strong>Comentário:</strong> %s</p>",
			strings.ReplaceAll(photo.Comment, "\n", "<br/>")))
	}
	b.WriteString("<div style='clear:both;'></div>")
	b.WriteString("</li>")
}

// htmlThumbnail encodes the entry's thumbnail as an inline base64 JPEG.
func htmlThumbnail(e Entry, quality int) (string, int, int) {
	if e.Thumb == nil {
		return "", 0, 0
	}
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, e.Thumb, &jpeg.Options{Quality: quality}); err != nil {
		log.Warnf("failed to encode thumbnail for %s: %v", e.Photo.Name, err)
		return "", 0, 0
	}
	bounds := e.Thumb.Bounds()
	return base64.StdEncoding.EncodeToString(buf.Bytes()), bounds.Dx(), bounds.Dy()
}
