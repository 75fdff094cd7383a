package session

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vistoria/config"
	"vistoria/models"
	"vistoria/store"
)

const zonesFixture = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"Quadra": "Q1", "Sigla": "AG-01"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-47.1, -22.9], [-47.0, -22.9], [-47.0, -22.8], [-47.1, -22.8], [-47.1, -22.9]]]
      }
    }
  ]
}`

func writeJPEG(t *testing.T, path string, seed uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{R: seed, G: uint8(x * 8), B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	zonesPath := filepath.Join(dir, "zonas.geojson")
	require.NoError(t, os.WriteFile(zonesPath, []byte(zonesFixture), 0o644))

	return &config.Config{
		ImagesDir:      dir,
		ZonesPath:      zonesPath,
		HeaderLine1:    "DIRETORIA DE ÁREAS VERDES",
		HeaderLine2:    "UNIVERSIDADE",
		ReportTitle:    "RELATÓRIO DE VISTORIA",
		FooterLine1:    "Rua Cinco, 123",
		FooterLine2:    "Campinas - SP",
		FooterLine3:    "contato@example.org",
		Contract:       "039/2024",
		Description:    "Vistoria de campo",
		ContractedName: "João Pereira",
		Location:       "Campinas-SP",
		JPEGQuality:    85,
		ThumbnailMax:   100,
		ThumbnailCache: 8,
	}
}

func seedImages(t *testing.T, dir string) {
	t.Helper()
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	files := []struct {
		name  string
		seed  uint8
		taken time.Time
	}{
		{"IMG_b.jpg", 10, base},
		{"IMG_c.jpg", 20, base.Add(time.Hour)},
		{"IMG_a.jpg", 30, base.Add(2 * time.Hour)},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		writeJPEG(t, path, f.seed)
		require.NoError(t, os.Chtimes(path, f.taken, f.taken))
	}
}

func TestNewFailsWithoutZones(t *testing.T) {
	cfg := testConfig(t)
	cfg.ZonesPath = filepath.Join(cfg.ImagesDir, "missing.geojson")

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zones file not found")
}

func TestScanClassifiesWithoutGPS(t *testing.T) {
	cfg := testConfig(t)
	seedImages(t, cfg.ImagesDir)

	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Scan(nil))

	photos := s.Photos()
	require.Len(t, photos, 3)
	for _, p := range photos {
		assert.Equal(t, models.ZoneUnknown, p.ZoneKind)
		assert.Equal(t, models.UnknownSigla, p.ZoneID)
		assert.Equal(t, models.UnknownSigla, p.Sigla)
		assert.True(t, p.Include)
		assert.Equal(t, models.StatusNotDone, p.Status)
		assert.NotEmpty(t, p.Hash)
	}
	// camera JPEGs without an EXIF block fall back to the file time
	assert.True(t, photos[0].TakenAt.After(time.Time{}))

	for _, r := range s.Results() {
		assert.Equal(t, models.RecordDegraded, r.Outcome)
		assert.Contains(t, r.Reason, "no EXIF block")
	}
}

func TestScanSkipsNonImages(t *testing.T) {
	cfg := testConfig(t)
	seedImages(t, cfg.ImagesDir)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ImagesDir, "notas.txt"), []byte("x"), 0o644))

	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Scan(nil))

	assert.Len(t, s.Photos(), 3)
}

func TestRenameAllAssignsCanonicalNames(t *testing.T) {
	cfg := testConfig(t)
	seedImages(t, cfg.ImagesDir)

	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Scan(nil))

	hashByName := map[string]string{}
	for _, p := range s.Photos() {
		hashByName[p.Name] = p.Hash
	}

	results, err := s.RenameAll(nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	photos := s.Photos()
	require.Len(t, photos, 3)
	assert.Equal(t, "001 - Unknown.jpg", photos[0].Name)
	assert.Equal(t, "002 - Unknown.jpg", photos[1].Name)
	assert.Equal(t, "003 - Unknown.jpg", photos[2].Name)

	// numbering follows capture time, and hashes survive the rename
	assert.Equal(t, hashByName["IMG_b.jpg"], photos[0].Hash)
	assert.Equal(t, hashByName["IMG_c.jpg"], photos[1].Hash)
	assert.Equal(t, hashByName["IMG_a.jpg"], photos[2].Hash)

	for _, p := range photos {
		_, err := os.Stat(p.Path)
		assert.NoError(t, err)
	}
}

func TestRenameAllKeepsFriendlyNames(t *testing.T) {
	cfg := testConfig(t)
	writeJPEG(t, filepath.Join(cfg.ImagesDir, "004 - AG-01.jpg"), 44)

	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Scan(nil))

	results, err := s.RenameAll(nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, results[0].OldPath, results[0].NewPath)
	assert.Equal(t, "004 - AG-01.jpg", s.Photos()[0].Name)
}

func TestBuildReportEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	seedImages(t, cfg.ImagesDir)

	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Scan(nil))
	_, err = s.RenameAll(nil)
	require.NoError(t, err)

	// user edits one photo, then the pipeline rescans
	first := s.Photos()[0]
	s.Store().SetEdit(first.Hash, models.ImageEdit{
		Status:  models.StatusDone,
		Comment: "poda executada",
		Include: true,
	})
	s.Store().Doc.ReportDate = "15/03/2026"
	require.NoError(t, s.Scan(nil))

	plan, pdfPath, err := s.BuildReport(true, nil)
	require.NoError(t, err)
	assert.Equal(t, "260315_Relatorio.pdf", filepath.Base(pdfPath))

	// cover + status + comments + two photo pages + signature
	assert.Equal(t, 6, plan.TotalPages)
	assert.Equal(t, 4, plan.FirstPhotoPage[models.UnknownSigla])

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))

	htmlData, err := os.ReadFile(filepath.Join(cfg.ImagesDir, "PYGeoDMA.html"))
	require.NoError(t, err)
	assert.Contains(t, string(htmlData), "poda executada")
}

func TestBuildReportSkipsExcludedPhotos(t *testing.T) {
	cfg := testConfig(t)
	seedImages(t, cfg.ImagesDir)

	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Scan(nil))

	excluded := s.Photos()[0]
	s.Store().SetEdit(excluded.Hash, models.ImageEdit{
		Status:  models.StatusNotDone,
		Include: false,
	})
	require.NoError(t, s.Scan(nil))

	plan, _, err := s.BuildReport(false, nil)
	require.NoError(t, err)

	// cover + status + one photo page for the two remaining photos
	assert.Equal(t, 3, plan.TotalPages)
}

func TestSavePersistsEdits(t *testing.T) {
	cfg := testConfig(t)
	seedImages(t, cfg.ImagesDir)

	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Scan(nil))
	require.NoError(t, s.Save())

	reopened, err := store.Open(filepath.Join(cfg.ImagesDir, store.DBFileName))
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Len())
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "260315_Relatorio.pdf", ReportFileName("15/03/2026"))
	assert.True(t, strings.HasSuffix(ReportFileName("not a date"), "_Relatorio.pdf"))
}
