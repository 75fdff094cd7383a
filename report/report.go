// Package report turns classified inspection photos into the final
// deliverables: a paginated landscape A4 PDF and a standalone HTML page.
//
// Rendering is planned first: a dry run of the page flow counts pages and
// records where each sigla's photos begin, then the real run draws the
// same flow against the plan. The two runs share all layout code, so a
// mismatch between them is a bug, not an input problem.
package report

import (
	"fmt"

	"github.com/apex/log"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"
	"seehuhn.de/go/pdf/outline"

	"vistoria/models"
)

// Params carries everything the renderer needs. Entries must already be
// filtered to the included photos and sorted in presentation order.
type Params struct {
	OutputPath string

	HeaderLine1 string
	HeaderLine2 string
	ReportTitle string
	FooterLines []string

	ReportDate     string
	Contract       string
	Description    string
	FiscalName     string
	ContractedName string
	Location       string

	GeneralComments      string
	DisableStates        bool
	DisableCommentsTable bool
	IncludeSignature     bool

	JPEGQuality int

	Entries  []Entry
	Progress models.ProgressFunc
}

// Plan is the result of the dry run: the page total used by every footer
// and the 1-based page on which each sigla's photos start.
type Plan struct {
	TotalPages     int
	FirstPhotoPage map[string]int
}

func photosOf(entries []Entry) []models.Photo {
	photos := make([]models.Photo, len(entries))
	for i, e := range entries {
		photos[i] = e.Photo
	}
	return photos
}

// BuildPlan runs the page flow without drawing anything and reports the
// resulting pagination.
func BuildPlan(p *Params) (*Plan, error) {
	tables := Aggregate(photosOf(p.Entries))
	return buildPlan(p, tables, newFontSet())
}

func buildPlan(p *Params, t *Tables, fonts *fontSet) (*Plan, error) {
	f := newFlow(p, t, fonts, nil, nil)
	if err := f.walk(); err != nil {
		return nil, fmt.Errorf("failed to plan report pages: %w", err)
	}
	return &Plan{
		TotalPages:     f.pageNo,
		FirstPhotoPage: f.firstPhoto,
	}, nil
}

// Build writes the PDF to p.OutputPath and returns the plan it was built
// against.
func Build(p *Params) (*Plan, error) {
	tables := Aggregate(photosOf(p.Entries))
	fonts := newFontSet()

	plan, err := buildPlan(p, tables, fonts)
	if err != nil {
		return nil, err
	}

	doc, err := document.CreateMultiPage(p.OutputPath, paperSize, pdf.V1_7, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", p.OutputPath, err)
	}
	doc.Out.GetMeta().Info = &pdf.Info{
		Title:   p.ReportTitle,
		Subject: p.Description,
		Creator: "vistoria",
	}

	f := newFlow(p, tables, fonts, doc, plan)
	if err := f.walk(); err != nil {
		doc.Close()
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	if err := checkPlan(plan, f); err != nil {
		doc.Close()
		return nil, err
	}
	writeOutline(doc, f)

	if err := doc.Close(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", p.OutputPath, err)
	}
	log.Infof("report written to %s (%d pages)", p.OutputPath, plan.TotalPages)
	return plan, nil
}

// checkPlan compares the rendered flow against the dry run. Any
// difference means the two passes disagree about layout.
func checkPlan(plan *Plan, f *flow) error {
	if f.pageNo != plan.TotalPages {
		return fmt.Errorf("rendered %d pages but planned %d: layout passes out of sync", f.pageNo, plan.TotalPages)
	}
	for sigla, page := range f.firstPhoto {
		if plan.FirstPhotoPage[sigla] != page {
			return fmt.Errorf("photos for %q rendered on page %d but planned on page %d: layout passes out of sync",
				sigla, page, plan.FirstPhotoPage[sigla])
		}
	}
	return nil
}

// writeOutline adds a bookmark per report section, with one child per
// sigla under the photo section.
func writeOutline(doc *document.MultiPage, f *flow) {
	if len(f.marks) == 0 {
		return
	}
	tree := &outline.Tree{}
	for _, m := range f.marks {
		node := tree.AddChild(m.title)
		node.Action = gotoAction(m.page)
		if m.title == "Fotos" {
			for _, sigla := range f.photoOrder {
				child := node.AddChild(sigla)
				child.Action = gotoAction(f.firstPhoto[sigla])
			}
		}
	}
	tree.Write(doc.Out)
}
