package report

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/annotation"
	"seehuhn.de/go/pdf/document"
	"seehuhn.de/go/pdf/font"
	"seehuhn.de/go/pdf/graphics/color"

	"vistoria/models"
)

const mm = 72.0 / 25.4

// A4 landscape.
const (
	paperW = 841.890
	paperH = 595.276
)

var paperSize = &pdf.Rectangle{URx: paperW, URy: paperH}

const (
	margin      = 40 * mm
	usableW     = paperW - 2*margin
	contentTop  = paperH - 40*mm
	bottomLimit = 25 * mm
	footerRuleY = 20 * mm

	tableFontSize  = 9
	tableLeading   = 11.0
	tableLineWidth = 0.7
	cellPadX       = 2 * mm
	cellPadY       = 1.5 * mm

	statusRowH         = 6 * mm
	statusColID        = 20 * mm
	statusColSigla     = 45 * mm
	statusColStatus    = 35 * mm
	statusBlockW       = statusColID + statusColSigla + statusColStatus
	statusBlockGap     = 10 * mm
	statusRowsPerBlock = 15
	statusRowsPerPage  = 30

	commentColID    = 25 * mm
	commentColSigla = 30 * mm

	photoMaxH      = 76 * mm
	captionH       = 65 * mm
	photoGap       = 5 * mm
	captionLeading = 11.0

	commentsLeading = 12.0
)

// Pastel fills for the three recognized states; anything else renders on
// plain white.
var statusColors = map[string]color.Color{
	models.StatusDone:    color.DeviceRGB(0.90, 1.0, 0.90),
	models.StatusPartial: color.DeviceRGB(1.0, 1.0, 0.85),
	models.StatusNotDone: color.DeviceRGB(1.0, 0.90, 0.90),
}

type mark struct {
	title string
	page  int // 1-based
}

// flow walks the report's page sequence. With a document attached it
// renders; without one it only counts pages and records where each sigla
// first appears. Both passes run the identical code, which is what keeps
// the page plan and the rendered document in agreement.
type flow struct {
	p     *Params
	t     *Tables
	fonts *fontSet

	doc  *document.MultiPage // nil during the planning pass
	plan *Plan               // nil during the planning pass

	page   *document.Page
	pageNo int
	yPos   float64

	firstPhoto map[string]int
	photoOrder []string
	marks      []mark

	err error
}

func newFlow(p *Params, t *Tables, fonts *fontSet, doc *document.MultiPage, plan *Plan) *flow {
	return &flow{
		p:          p,
		t:          t,
		fonts:      fonts,
		doc:        doc,
		plan:       plan,
		firstPhoto: make(map[string]int),
	}
}

func (f *flow) walk() error {
	if err := f.cover(); err != nil {
		return err
	}
	if !f.p.DisableStates {
		if err := f.statusTable("QUADRAS", "Quadra", f.t.QuadraRows); err != nil {
			return err
		}
		if err := f.statusTable("CANTEIROS", "Canteiro", f.t.CanteiroRows); err != nil {
			return err
		}
	}
	if !f.p.DisableCommentsTable {
		if err := f.commentTable("QUADRAS", "Quadra", f.t.QuadraComments); err != nil {
			return err
		}
		if err := f.commentTable("CANTEIROS", "Canteiro", f.t.CanteiroComments); err != nil {
			return err
		}
	}
	if err := f.generalComments(); err != nil {
		return err
	}
	if err := f.photoPages(); err != nil {
		return err
	}
	if f.p.IncludeSignature {
		if err := f.signaturePage(); err != nil {
			return err
		}
	}
	return f.err
}

func (f *flow) startPage() {
	f.pageNo++
	f.yPos = contentTop
	if f.doc != nil {
		f.page = f.doc.AddPage()
	}
}

func (f *flow) endPage() error {
	if f.page == nil {
		return nil
	}
	err := f.page.Close()
	f.page = nil
	return err
}

func (f *flow) mark(title string) {
	f.marks = append(f.marks, mark{title: title, page: f.pageNo})
}

func (f *flow) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

// text draws a single line with its left edge at (x, y).
func (f *flow) text(x, y float64, F font.Layouter, size float64, s string) {
	if f.page == nil {
		return
	}
	f.page.TextBegin()
	f.page.TextSetFont(F, size)
	f.page.TextFirstLine(x, y)
	f.page.TextShow(s)
	f.page.TextEnd()
}

// textCentered draws a single line centered on x.
func (f *flow) textCentered(x, y float64, F font.Layouter, size float64, s string) {
	if f.page == nil {
		return
	}
	f.page.TextBegin()
	f.page.TextSetFont(F, size)
	f.page.TextFirstLine(x, y)
	f.page.TextShowAligned(s, 0, 0.5)
	f.page.TextEnd()
}

// textRight draws a single line ending at x.
func (f *flow) textRight(x, y float64, F font.Layouter, size float64, s string) {
	if f.page == nil {
		return
	}
	f.page.TextBegin()
	f.page.TextSetFont(F, size)
	f.page.TextFirstLine(x, y)
	f.page.TextShowAligned(s, 0, 1)
	f.page.TextEnd()
}

func gotoAction(page1 int) pdf.Dict {
	return pdf.Dict{
		"S": pdf.Name("GoTo"),
		"D": pdf.Array{
			pdf.Integer(page1 - 1),
			pdf.Name("XYZ"),
			pdf.Integer(0),
			pdf.Number(paperH),
			pdf.Integer(0),
		},
	}
}

func (f *flow) addLink(rect pdf.Rectangle, action pdf.Dict) {
	if f.page == nil || f.err != nil {
		return
	}
	link := &annotation.Link{
		Common: annotation.Common{Rect: rect},
		Action: action,
	}
	ref, _, err := link.Embed(f.doc.RM)
	if err != nil {
		f.fail(err)
		return
	}
	annots, _ := f.page.PageDict["Annots"].(pdf.Array)
	f.page.PageDict["Annots"] = append(annots, ref)
}

func (f *flow) addGoToLink(rect pdf.Rectangle, page1 int) {
	f.addLink(rect, gotoAction(page1))
}

func (f *flow) addURILink(rect pdf.Rectangle, uri string) {
	f.addLink(rect, pdf.Dict{
		"S":   pdf.Name("URI"),
		"URI": pdf.String(uri),
	})
}

// pageHeader draws the repeating institutional header of content pages.
func (f *flow) pageHeader() {
	if f.page == nil {
		return
	}
	f.textCentered(paperW/2, paperH-20*mm, f.fonts.regular, 12, f.p.HeaderLine1)
	f.textCentered(paperW/2, paperH-26*mm, f.fonts.regular, 12, f.p.HeaderLine2)
	f.textCentered(paperW/2, paperH-34*mm, f.fonts.bold, 14, f.p.ReportTitle)
}

// pageFooter draws the footer rule, the address lines and the page
// counter. Totals come from the plan, which is why the planning pass
// never draws.
func (f *flow) pageFooter() {
	if f.page == nil {
		return
	}
	p := f.page
	p.SetLineWidth(1)
	p.MoveTo(margin, footerRuleY)
	p.LineTo(paperW-margin, footerRuleY)
	p.Stroke()

	y := 15 * mm
	for _, line := range f.p.FooterLines {
		f.textCentered(paperW/2, y, f.fonts.regular, 8, line)
		y -= 4 * mm
	}
	f.textCentered(paperW/2, y-0.5*mm, f.fonts.regular, 8,
		fmt.Sprintf("Página %d de %d", f.pageNo, f.plan.TotalPages))
}

func (f *flow) endContentPage() error {
	f.pageFooter()
	return f.endPage()
}

func (f *flow) cover() error {
	f.startPage()
	f.mark("Capa")
	if f.page != nil {
		f.textCentered(paperW/2, paperH-30*mm, f.fonts.bold, 14, f.p.HeaderLine1)
		f.textCentered(paperW/2, paperH-40*mm, f.fonts.bold, 14, f.p.HeaderLine2)
		f.textCentered(paperW/2, paperH-60*mm, f.fonts.bold, 16, f.p.ReportTitle)

		f.text(margin, paperH-80*mm, f.fonts.regular, 12, "DATA DO RELATÓRIO: "+f.p.ReportDate)
		f.text(margin, paperH-90*mm, f.fonts.regular, 12, "CONTRATO Nº: "+f.p.Contract)
		f.text(margin, paperH-110*mm, f.fonts.regular, 12, f.p.Description)

		y := 20 * mm
		for _, line := range f.p.FooterLines {
			f.textCentered(paperW/2, y, f.fonts.regular, 8, line)
			y -= 5 * mm
		}
		f.textCentered(paperW/2, 5*mm, f.fonts.regular, 8,
			fmt.Sprintf("Página 1 de %d", f.plan.TotalPages))
	}
	return f.endPage()
}

// statusTable lays out one status table: a single block up to 15 rows,
// two side-by-side blocks up to 30, and pages of 30 beyond that.
func (f *flow) statusTable(title, idHeader string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	pages := (len(rows) + statusRowsPerPage - 1) / statusRowsPerPage

	for pageIdx := 0; pageIdx*statusRowsPerPage < len(rows); pageIdx++ {
		start := pageIdx * statusRowsPerPage
		chunk := rows[start:min(start+statusRowsPerPage, len(rows))]

		f.startPage()
		if pageIdx == 0 {
			f.mark("Situação - " + title)
		}
		f.pageHeader()
		f.textCentered(paperW/2, contentTop, f.fonts.bold, 12, "SITUAÇÃO - "+title)

		tableTop := contentTop - 8*mm
		if pages > 1 {
			f.textCentered(paperW/2, contentTop-6*mm, f.fonts.regular, 9,
				fmt.Sprintf("Página %d de %d", pageIdx+1, pages))
			tableTop = contentTop - 12*mm
		}

		if len(chunk) <= statusRowsPerBlock {
			f.statusBlock((paperW-statusBlockW)/2, tableTop, idHeader, chunk)
		} else {
			f.statusBlock(paperW/2-statusBlockW-statusBlockGap/2, tableTop, idHeader, chunk[:statusRowsPerBlock])
			f.statusBlock(paperW/2+statusBlockGap/2, tableTop, idHeader, chunk[statusRowsPerBlock:])
		}

		if err := f.endContentPage(); err != nil {
			return err
		}
	}
	return nil
}

func (f *flow) statusBlock(x, top float64, idHeader string, rows []Row) {
	if f.page == nil {
		return
	}
	f.statusCell(x, top, statusColID, idHeader, f.fonts.bold, nil, 0)
	f.statusCell(x+statusColID, top, statusColSigla, "Sigla", f.fonts.bold, nil, 0)
	f.statusCell(x+statusColID+statusColSigla, top, statusColStatus, "Estado", f.fonts.bold, nil, 0)

	y := top - statusRowH
	for _, r := range rows {
		target := 0
		if f.plan != nil {
			target = f.plan.FirstPhotoPage[r.Sigla]
		}
		f.statusCell(x, y, statusColID, r.ZoneID, f.fonts.regular, nil, 0)
		f.statusCell(x+statusColID, y, statusColSigla, r.Sigla, f.fonts.regular, nil, target)
		f.statusCell(x+statusColID+statusColSigla, y, statusColStatus, r.Status, f.fonts.regular, statusColors[r.Status], 0)
		y -= statusRowH
	}
}

// statusCell draws one fixed-height cell. A non-nil fill tints the cell
// background; a positive linkPage turns the cell into an internal link.
func (f *flow) statusCell(x, top, w float64, text string, F font.Layouter, fill color.Color, linkPage int) {
	p := f.page
	if fill != nil {
		p.PushGraphicsState()
		p.SetFillColor(fill)
		p.Rectangle(x, top-statusRowH, w, statusRowH)
		p.Fill()
		p.PopGraphicsState()
	}
	p.SetLineWidth(tableLineWidth)
	p.Rectangle(x, top-statusRowH, w, statusRowH)
	p.Stroke()
	f.text(x+cellPadX, top-statusRowH+1.8*mm, F, tableFontSize, text)

	if linkPage > 0 {
		f.addGoToLink(pdf.Rectangle{LLx: x, LLy: top - statusRowH, URx: x + w, URy: top}, linkPage)
	}
}

func commentColText() float64 {
	return usableW - commentColID - commentColSigla
}

// commentRowLines wraps one comment row's three cells to their column
// widths. Both passes call this, so row heights are identical.
func (f *flow) commentRowLines(b CommentBlock) (id, sigla, text []string) {
	reg := f.fonts.regular
	id = f.fonts.wrap(reg, tableFontSize, b.ZoneID, commentColID-2*cellPadX)
	sigla = f.fonts.wrap(reg, tableFontSize, b.Sigla, commentColSigla-2*cellPadX)
	textW := commentColText() - 2*cellPadX
	for _, line := range strings.Split(b.Text, "\n") {
		text = append(text, f.fonts.wrap(reg, tableFontSize, line, textW)...)
	}
	return id, sigla, text
}

func commentRowHeight(id, sigla, text []string) float64 {
	n := max(len(id), len(sigla), len(text), 1)
	return float64(n)*tableLeading + 2*cellPadY
}

func (f *flow) commentCell(x, top, w, h float64, F font.Layouter, lines []string) {
	if f.page == nil {
		return
	}
	p := f.page
	p.SetLineWidth(tableLineWidth)
	p.Rectangle(x, top-h, w, h)
	p.Stroke()
	if len(lines) == 0 {
		return
	}
	p.TextBegin()
	p.TextSetFont(F, tableFontSize)
	p.TextSetLeading(tableLeading)
	p.TextFirstLine(x+cellPadX, top-cellPadY-tableFontSize)
	for i, line := range lines {
		if i > 0 {
			p.TextNextLine()
		}
		p.TextShow(line)
	}
	p.TextEnd()
}

func (f *flow) beginCommentPage(title, idHeader string, first bool) {
	f.startPage()
	if first {
		f.mark("Comentários - " + title)
	}
	f.pageHeader()
	f.textCentered(paperW/2, contentTop, f.fonts.bold, 12, "COMENTÁRIOS - "+title)
	f.yPos = contentTop - 8*mm

	headerH := tableLeading + 2*cellPadY
	f.commentCell(margin, f.yPos, commentColID, headerH, f.fonts.bold, []string{idHeader})
	f.commentCell(margin+commentColID, f.yPos, commentColSigla, headerH, f.fonts.bold, []string{"Sigla"})
	f.commentCell(margin+commentColID+commentColSigla, f.yPos, commentColText(), headerH, f.fonts.bold, []string{"Comentários"})
	f.yPos -= headerH
}

// commentTable lays out one comment table as incremental flow: rows take
// the height of their wrapped content, and a row that would cross the
// bottom margin moves to a fresh page with the header redrawn.
func (f *flow) commentTable(title, idHeader string, blocks []CommentBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	f.beginCommentPage(title, idHeader, true)

	for _, b := range blocks {
		id, sigla, text := f.commentRowLines(b)
		rowH := commentRowHeight(id, sigla, text)
		if f.yPos-rowH < bottomLimit {
			if err := f.endContentPage(); err != nil {
				return err
			}
			f.beginCommentPage(title, idHeader, false)
		}
		f.commentCell(margin, f.yPos, commentColID, rowH, f.fonts.regular, id)
		f.commentCell(margin+commentColID, f.yPos, commentColSigla, rowH, f.fonts.regular, sigla)
		f.commentCell(margin+commentColID+commentColSigla, f.yPos, commentColText(), rowH, f.fonts.regular, text)
		f.yPos -= rowH
	}
	return f.endContentPage()
}

// generalComments flows the report-wide comment text as paragraphs. The
// region is skipped unless the trimmed text is longer than 10 characters.
// Continuation pages carry no header, only the footer.
func (f *flow) generalComments() error {
	text := strings.ReplaceAll(f.p.GeneralComments, "\r\n", "\n")
	if utf8.RuneCountInString(strings.TrimSpace(text)) <= 10 {
		return nil
	}

	f.startPage()
	f.mark("Comentários Gerais")
	f.pageHeader()
	f.textCentered(paperW/2, contentTop, f.fonts.bold, 12, "COMENTÁRIOS GERAIS")
	f.yPos = contentTop - 10*mm

	breakPage := func() error {
		if err := f.endContentPage(); err != nil {
			return err
		}
		f.startPage()
		f.yPos = paperH - 30*mm
		return nil
	}

	reg := f.fonts.regular
	pageH := f.yPos - bottomLimit
	for _, para := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(para)
		if trimmed == "" {
			if f.yPos-commentsLeading < bottomLimit {
				if err := breakPage(); err != nil {
					return err
				}
			}
			f.yPos -= commentsLeading
			continue
		}

		indent := para[:len(para)-len(strings.TrimLeft(para, " "))]
		indentW := float64(len(indent)) * f.fonts.width(reg, 10, " ")
		lines := f.fonts.wrapFirst(reg, 10, trimmed, usableW-indentW, usableW)

		paraH := float64(len(lines)) * commentsLeading
		if f.yPos-paraH < bottomLimit && paraH < pageH {
			if err := breakPage(); err != nil {
				return err
			}
		}
		for i, line := range lines {
			if f.yPos-commentsLeading < bottomLimit {
				if err := breakPage(); err != nil {
					return err
				}
			}
			x := margin
			if i == 0 {
				x += indentW
			}
			f.yPos -= commentsLeading
			f.text(x, f.yPos, reg, 10, line)
		}
	}
	return f.endContentPage()
}

// photoPages draws the included photos two per page and records the page
// where each sigla first appears.
func (f *flow) photoPages() error {
	entries := f.p.Entries
	for i := 0; i < len(entries); i += 2 {
		f.startPage()
		if i == 0 {
			f.mark("Fotos")
		}
		f.pageHeader()
		for j := 0; j < 2 && i+j < len(entries); j++ {
			e := entries[i+j]
			if _, ok := f.firstPhoto[e.Photo.Sigla]; !ok {
				f.firstPhoto[e.Photo.Sigla] = f.pageNo
				f.photoOrder = append(f.photoOrder, e.Photo.Sigla)
			}
			f.photoSlot(e, j)
			if f.page != nil && f.p.Progress != nil {
				f.p.Progress(i+j+1, len(entries))
			}
		}
		if err := f.endContentPage(); err != nil {
			return err
		}
	}
	return nil
}

// photoSlot draws one photo cell: status-tinted background, the image
// aspect-fit in its box, and the caption in a fixed frame below.
func (f *flow) photoSlot(e Entry, col int) {
	if f.page == nil {
		return
	}
	p := f.page

	slotW := usableW/2 - photoGap/2
	x := margin
	if col == 1 {
		x = margin + usableW/2 + photoGap/2
	}
	top := contentTop
	blockH := photoMaxH + captionH + photoGap

	status := e.Photo.Status
	if status == "" {
		status = models.StatusNotDone
	}
	if fill, ok := statusColors[status]; ok {
		p.PushGraphicsState()
		p.SetFillColor(fill)
		p.Rectangle(x-2*mm, top-blockH-2*mm, slotW+4*mm, blockH+4*mm)
		p.Fill()
		p.PopGraphicsState()
	}

	captionTop := top
	if e.Thumb != nil {
		b := e.Thumb.Bounds()
		iw, ih := float64(b.Dx()), float64(b.Dy())
		if iw > 0 && ih > 0 {
			maxImgW := usableW/2 - photoGap
			scale := math.Min(maxImgW/iw, photoMaxH/ih)
			drawW, drawH := iw*scale, ih*scale
			imgX := (x - 2*mm) + (slotW+4*mm)/2 - drawW/2
			imgY := top - drawH

			p.PushGraphicsState()
			p.Transform(matrix.Matrix{drawW, 0, 0, drawH, imgX, imgY})
			p.DrawXObject(&jpegImage{src: e.Thumb, quality: f.p.JPEGQuality})
			p.PopGraphicsState()

			captionTop = imgY - 1*mm
		}
	}
	f.drawCaption(e.Photo, x, captionTop, slotW-photoGap)
}

// drawCaption flows the caption lines into the fixed frame below the
// photo. Lines beyond the frame are dropped, not paginated.
func (f *flow) drawCaption(photo models.Photo, x, top, width float64) {
	bottom := top - captionH
	y := top - captionLeading

	for _, cl := range buildCaption(photo, f.p.DisableStates) {
		F := f.fonts.regular
		if cl.bold {
			F = f.fonts.bold
		}
		lines := []string{cl.text}
		if cl.href == "" {
			lines = f.fonts.wrap(F, cl.size, cl.text, width)
		}
		for _, line := range lines {
			if y < bottom {
				return
			}
			f.text(x, y, F, cl.size, line)
			if cl.href != "" {
				w := f.fonts.width(F, cl.size, line)
				f.addURILink(pdf.Rectangle{LLx: x, LLy: y - 2, URx: x + w, URy: y + cl.size}, cl.href)
			}
			y -= captionLeading
		}
	}
}

func (f *flow) signaturePage() error {
	f.startPage()
	f.mark("Assinaturas")
	if f.page != nil {
		reg := f.fonts.regular
		leftX := paperW / 4
		rightX := 3 * paperW / 4
		y := paperH / 4
		const dateLine = "Data: ........./........../..........."

		f.textRight(paperW-margin, 25*mm, reg, 10, f.p.Location+", "+f.p.ReportDate)

		f.textCentered(leftX, y+20, reg, 10, "PREPOSTO CONTRATANTE")
		if f.p.FiscalName != "" {
			f.textCentered(leftX, y+10, reg, 10, "NOME: "+f.p.FiscalName)
		}
		f.textCentered(leftX, y, reg, 10, dateLine)

		f.textCentered(rightX, y+20, reg, 10, "PREPOSTO CONTRATADA")
		if f.p.ContractedName != "" {
			f.textCentered(rightX, y+10, reg, 10, "NOME: "+f.p.ContractedName)
		}
		f.textCentered(rightX, y, reg, 10, dateLine)
	}
	return f.endContentPage()
}
