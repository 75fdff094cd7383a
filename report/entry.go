package report

import (
	"fmt"
	"image"
	"strings"

	"vistoria/models"
)

// Entry is one report-ready photo: the classified, annotated record plus
// its thumbnail pixels.
type Entry struct {
	Photo models.Photo
	Thumb image.Image // nil when the pixels could not be decoded
}

// MapsURL returns the Google Maps link for the photo's coordinates, or
// "" when the photo carries no GPS data.
func MapsURL(p models.Photo) string {
	if !p.HasGPS {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", p.Latitude, p.Longitude)
}

// captionLine is one logical line of a photo caption. Lines with a href
// become link annotations and are never wrapped.
type captionLine struct {
	text string
	size float64
	bold bool
	href string
}

func zoneKindLabel(kind models.ZoneKind) string {
	if kind == models.ZoneCanteiro {
		return "Canteiro"
	}
	return "Quadra"
}

// entryNumber returns the leading sequence number of a friendly filename,
// or the whole stem for files that were never renamed.
func entryNumber(name string) string {
	stem := name
	if i := strings.LastIndex(stem, "."); i > 0 {
		stem = stem[:i]
	}
	return strings.SplitN(stem, " - ", 2)[0]
}

// buildCaption assembles the caption lines for one photo: sequence
// number, capture time, zone, location link, status and comments.
func buildCaption(p models.Photo, disableStates bool) []captionLine {
	taken := "Data/Hora desconhecida"
	if !p.TakenAt.IsZero() {
		taken = p.TakenAt.Format("02/01/2006 15:04:05")
	}
	lines := []captionLine{
		{text: entryNumber(p.Name), size: 10, bold: true},
		{text: "Data e hora: " + taken, size: 9},
	}

	kind := zoneKindLabel(p.ZoneKind)
	if p.HasGPS && p.Distance > 0 {
		lines = append(lines, captionLine{
			text: fmt.Sprintf("Próximo de: %s %s, Sigla: %s", kind, p.ZoneID, p.Sigla),
			size: 9,
		})
	} else {
		lines = append(lines, captionLine{
			text: fmt.Sprintf("%s: %s, Sigla: %s", kind, p.ZoneID, p.Sigla),
			size: 9,
		})
	}

	if url := MapsURL(p); url != "" {
		lines = append(lines,
			captionLine{text: "Localização:", size: 9},
			captionLine{text: url, size: 9, href: url})
	} else {
		lines = append(lines, captionLine{text: "Localização: " + models.NoLocation, size: 9})
	}

	if !disableStates {
		status := p.Status
		if status == "" {
			status = models.StatusNotDone
		}
		lines = append(lines, captionLine{text: "Estado: " + status, size: 9})
	}

	if strings.TrimSpace(p.Comment) != "" {
		lines = append(lines, captionLine{text: "Comentários", size: 9, bold: true})
		for _, line := range strings.Split(p.Comment, "\n") {
			line = strings.TrimRight(line, " \t\r")
			if line == "" {
				continue
			}
			lines = append(lines, captionLine{text: line, size: 9})
		}
	}
	return lines
}
