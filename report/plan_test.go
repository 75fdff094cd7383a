package report

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vistoria/models"
)

func photoEntry(i int, sigla string) Entry {
	return Entry{Photo: models.Photo{
		Name:     fmt.Sprintf("%03d - %s.jpg", i+1, sigla),
		Hash:     fmt.Sprintf("hash-%03d", i),
		TakenAt:  time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		HasGPS:   true,
		ZoneKind: models.ZoneQuadra,
		ZoneID:   fmt.Sprintf("Q%d", i+1),
		Sigla:    sigla,
		Status:   models.StatusDone,
		Include:  true,
	}}
}

func basePlanParams(entries []Entry) *Params {
	return &Params{
		HeaderLine1:          "DIRETORIA DE ÁREAS VERDES",
		HeaderLine2:          "DIVISÃO DE MEIO AMBIENTE",
		ReportTitle:          "RELATÓRIO DE VISTORIA",
		FooterLines:          []string{"Rua Cinco, 123", "Campinas - SP"},
		ReportDate:           "10/03/2026",
		Contract:             "039/2024",
		Description:          "Vistoria de rotina das áreas verdes",
		Location:             "Campinas",
		DisableStates:        true,
		DisableCommentsTable: true,
		Entries:              entries,
	}
}

func TestPlanCoverAndPhotoPages(t *testing.T) {
	entries := make([]Entry, 41)
	for i := range entries {
		entries[i] = photoEntry(i, "AG-CB")
	}

	plan, err := BuildPlan(basePlanParams(entries))
	require.NoError(t, err)

	assert.Equal(t, 22, plan.TotalPages) // cover + ceil(41/2)
	assert.Equal(t, 2, plan.FirstPhotoPage["AG-CB"])
}

func TestPlanFirstPhotoPagePerSigla(t *testing.T) {
	var entries []Entry
	for i := 0; i < 10; i++ {
		sigla := "ALFA"
		if i >= 5 {
			sigla = "BRAVO"
		}
		entries = append(entries, photoEntry(i, sigla))
	}

	plan, err := BuildPlan(basePlanParams(entries))
	require.NoError(t, err)

	assert.Equal(t, 2, plan.FirstPhotoPage["ALFA"])
	// entry index 5 sits on the third photo page
	assert.Equal(t, 4, plan.FirstPhotoPage["BRAVO"])
}

func TestPlanStatusTablePagination(t *testing.T) {
	cases := []struct {
		name        string
		rows        int
		statusPages int
	}{
		{"single centered block", 15, 1},
		{"two blocks side by side", 16, 1},
		{"full page", 30, 1},
		{"spills to second page", 31, 2},
		{"two full pages", 60, 2},
		{"spills to third page", 61, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries := make([]Entry, tc.rows)
			for i := range entries {
				entries[i] = photoEntry(i, fmt.Sprintf("SG-%03d", i))
			}
			p := basePlanParams(entries)
			p.DisableStates = false

			plan, err := BuildPlan(p)
			require.NoError(t, err)

			want := 1 + tc.statusPages + (tc.rows+1)/2
			assert.Equal(t, want, plan.TotalPages)
		})
	}
}

func TestPlanCommentTablePages(t *testing.T) {
	single := photoEntry(0, "AG-01")
	single.Photo.Comment = "poda pendente"
	p := basePlanParams([]Entry{single})
	p.DisableCommentsTable = false

	plan, err := BuildPlan(p)
	require.NoError(t, err)
	// cover + one comment page + one photo page
	assert.Equal(t, 3, plan.TotalPages)

	entries := make([]Entry, 60)
	for i := range entries {
		entries[i] = photoEntry(i, fmt.Sprintf("SG-%03d", i))
		entries[i].Photo.Comment = "linha um\nlinha dois\nlinha três"
	}
	p = basePlanParams(entries)
	p.DisableCommentsTable = false

	plan, err = BuildPlan(p)
	require.NoError(t, err)

	commentPages := plan.TotalPages - 1 - 30 // minus cover and photo pages
	assert.Greater(t, commentPages, 1, "60 multi-line rows must spill past one page")
}

func TestPlanGeneralCommentsGate(t *testing.T) {
	entries := []Entry{photoEntry(0, "AG-01")}

	p := basePlanParams(entries)
	p.GeneralComments = "curto"
	plan, err := BuildPlan(p)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.TotalPages, "short comments must not add a page")

	p.GeneralComments = "Observações gerais da vistoria realizada em março."
	plan, err = BuildPlan(p)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.TotalPages)
}

func TestPlanSignaturePage(t *testing.T) {
	entries := []Entry{photoEntry(0, "AG-01")}
	p := basePlanParams(entries)
	p.IncludeSignature = true

	plan, err := BuildPlan(p)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.TotalPages)
}

func TestPlanDoesNotWriteFiles(t *testing.T) {
	dir := t.TempDir()
	p := basePlanParams([]Entry{photoEntry(0, "AG-01")})
	p.OutputPath = filepath.Join(dir, "never.pdf")

	_, err := BuildPlan(p)
	require.NoError(t, err)

	_, err = os.Stat(p.OutputPath)
	assert.True(t, os.IsNotExist(err))
}

func TestBuildReportEndToEnd(t *testing.T) {
	dir := t.TempDir()

	var entries []Entry
	for i := 0; i < 5; i++ {
		e := photoEntry(i, "AG-01")
		if i%2 == 0 {
			e.Photo.Comment = "poda pendente"
		}
		e.Thumb = image.NewNRGBA(image.Rect(0, 0, 40, 30))
		entries = append(entries, e)
	}

	p := basePlanParams(entries)
	p.OutputPath = filepath.Join(dir, "relatorio.pdf")
	p.DisableStates = false
	p.DisableCommentsTable = false
	p.IncludeSignature = true
	p.GeneralComments = "Observações gerais de teste para o relatório mensal."
	p.FiscalName = "Maria da Silva"
	p.ContractedName = "João Pereira"

	var progressCalls int
	p.Progress = func(done, total int) { progressCalls++ }

	plan, err := Build(p)
	require.NoError(t, err)

	// cover + status + comments + general + 3 photo pages + signature
	assert.Equal(t, 8, plan.TotalPages)
	assert.Equal(t, 2+1+1+1, plan.FirstPhotoPage["AG-01"]) // after cover, status, comments, general
	assert.Equal(t, 5, progressCalls, "progress fires once per photo, render pass only")

	data, err := os.ReadFile(p.OutputPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}
