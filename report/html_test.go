package report

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vistoria/models"
)

func TestWriteHTMLReport(t *testing.T) {
	dir := t.TempDir()

	withGPS := Entry{
		Photo: models.Photo{
			Name:     "001 - AG-01.jpg",
			TakenAt:  time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC),
			HasGPS:   true,
			Latitude: -22.817639, Longitude: -47.069639,
			ZoneKind: models.ZoneQuadra,
			ZoneID:   "Q10",
			Sigla:    "AG-01",
			Distance: 4.2,
			Status:   models.StatusDone,
			Comment:  "grama alta\npoda pendente",
		},
		Thumb: image.NewNRGBA(image.Rect(0, 0, 40, 30)),
	}
	noGPS := Entry{
		Photo: models.Photo{
			Name:     "002 - Unknown.jpg",
			ZoneKind: models.ZoneUnknown,
			ZoneID:   models.UnknownSigla,
			Sigla:    models.UnknownSigla,
		},
	}

	p := basePlanParams([]Entry{withGPS, noGPS})
	p.DisableStates = false
	p.FiscalName = "Maria da Silva"

	require.NoError(t, WriteHTML(dir, p))

	data, err := os.ReadFile(filepath.Join(dir, HTMLFileName))
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "<html><head><meta charset='UTF-8'></head><body>")
	assert.Contains(t, html, p.HeaderLine1)
	assert.Contains(t, html, p.ReportTitle)
	assert.Contains(t, html, "Data do Relatório: 10/03/2026")
	assert.Contains(t, html, "Contrato No: 039/2024")
	assert.Contains(t, html, "<strong>Nome do Fiscal:</strong> Maria da Silva")

	assert.Contains(t, html, "<strong>001</strong>")
	assert.Contains(t, html, "<strong>Data e hora da imagem:</strong> 10/03/2026 09:15:00")
	assert.Contains(t, html, "<strong>Próximo de:</strong> Quadra Q10, <strong>Sigla:</strong> AG-01")
	assert.Contains(t, html, `href="https://www.google.com/maps?q=-22.817639,-47.069639"`)
	assert.Contains(t, html, "data:image/jpeg;base64,")
	assert.Contains(t, html, "width='40' height='30'")
	assert.Contains(t, html, "<strong>Estado:</strong> Concluído")
	assert.Contains(t, html, "<strong>Comentário:</strong> grama alta<br/>poda pendente")

	assert.Contains(t, html, "<strong>002</strong>")
	assert.Contains(t, html, "Data/Hora desconhecida")
	assert.Contains(t, html, "<strong>Quadra:</strong> Unknown, <strong>Sigla:</strong> Unknown")
	assert.Contains(t, html, "<strong>Localização:</strong> "+models.NoLocation)
}

func TestWriteHTMLDisableStates(t *testing.T) {
	dir := t.TempDir()

	e := photoEntry(0, "AG-01")
	p := basePlanParams([]Entry{e})
	p.DisableStates = true

	require.NoError(t, WriteHTML(dir, p))

	data, err := os.ReadFile(filepath.Join(dir, HTMLFileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<strong>Estado:</strong>")
}
