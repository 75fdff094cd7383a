package exifmeta

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Meta holds the EXIF-derived fields the pipeline needs from one image.
// When the image carries no usable EXIF block, TakenAt falls back to the
// file modification time and HasEXIF is false.
type Meta struct {
	HasEXIF     bool
	HasGPS      bool
	Latitude    float64
	Longitude   float64
	TakenAt     time.Time
	Orientation int
}

// Read extracts Meta from the image file at path. Only filesystem
// failures are errors; a missing or unreadable EXIF block degrades to
// mtime-based metadata.
func Read(path string) (Meta, error) {
	meta := Meta{Orientation: 1}

	info, err := os.Stat(path)
	if err != nil {
		return meta, fmt.Errorf("failed to stat image: %w", err)
	}
	meta.TakenAt = info.ModTime()

	f, err := os.Open(path)
	if err != nil {
		return meta, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return meta, nil
	}
	meta.HasEXIF = true

	if lat, lon, err := x.LatLong(); err == nil {
		meta.HasGPS = true
		meta.Latitude = lat
		meta.Longitude = lon
	}

	if t, ok := captureTime(x); ok {
		meta.TakenAt = t
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if o, err := tag.Int(0); err == nil {
			meta.Orientation = o
		}
	}

	return meta, nil
}

// captureTime walks the EXIF datetime tags in order of preference:
// DateTimeOriginal, DateTimeDigitized, DateTime.
func captureTime(x *exif.Exif) (time.Time, bool) {
	for _, name := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		if t, err := ParseDateTime(s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDateTime parses an EXIF datetime value ("2006:01:02 15:04:05",
// with some cameras emitting dash-separated dates or trailing NULs).
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "\x00")
	for _, layout := range []string{"2006:01:02 15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized EXIF datetime %q", s)
}
