package exifmeta

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDateTime(t *testing.T) {
	testCases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024:05/17 10:30:00", wantErr: true},
		{in: "2024:05:17 10:30:00", want: time.Date(2024, 5, 17, 10, 30, 0, 0, time.Local)},
		{in: "2024-05-17 10:30:00", want: time.Date(2024, 5, 17, 10, 30, 0, 0, time.Local)},
		{in: "2024:05:17 10:30:00\x00", want: time.Date(2024, 5, 17, 10, 30, 0, 0, time.Local)},
		{in: "  2024:05:17 10:30:00  ", want: time.Date(2024, 5, 17, 10, 30, 0, 0, time.Local)},
		{in: "", wantErr: true},
		{in: "not a date", wantErr: true},
	}

	for _, tc := range testCases {
		got, err := ParseDateTime(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDateTime(%q) succeeded, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDateTime(%q): %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseDateTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestReadDegradesWithoutEXIF(t *testing.T) {
	// A JPEG encoded by the standard library carries no EXIF block.
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "plain.jpg")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	meta, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if meta.HasEXIF {
		t.Errorf("HasEXIF = true, want false")
	}
	if meta.HasGPS {
		t.Errorf("HasGPS = true, want false")
	}
	if meta.Orientation != 1 {
		t.Errorf("Orientation = %d, want 1", meta.Orientation)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat fixture: %v", err)
	}
	if !meta.TakenAt.Equal(info.ModTime()) {
		t.Errorf("TakenAt = %v, want mtime %v", meta.TakenAt, info.ModTime())
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Errorf("Read() succeeded, want error")
	}
}
