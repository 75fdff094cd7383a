package report

import (
	"sort"
	"strings"

	"vistoria/models"
)

// Row is one line of a status table: a zone, its sigla, and the status
// resolved by majority vote over the zone's photos. When two statuses
// tie, the one seen first in input order wins.
type Row struct {
	ZoneID string
	Sigla  string
	Status string
}

// CommentBlock carries the merged comment text of one zone: the distinct
// non-blank lines contributed by its photos, sorted and newline-joined.
type CommentBlock struct {
	ZoneID string
	Sigla  string
	Text   string
}

// Tables holds the aggregated table inputs, partitioned by zone kind.
type Tables struct {
	QuadraRows       []Row
	CanteiroRows     []Row
	QuadraComments   []CommentBlock
	CanteiroComments []CommentBlock
}

type groupKey struct {
	kind   models.ZoneKind
	zoneID string
	sigla  string
}

type group struct {
	statusOrder []string
	statusCount map[string]int
	lines       map[string]struct{}
}

func (g *group) addStatus(status string) {
	if status == "" {
		status = models.StatusNotDone
	}
	if _, seen := g.statusCount[status]; !seen {
		g.statusOrder = append(g.statusOrder, status)
	}
	g.statusCount[status]++
}

func (g *group) addComment(text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		g.lines[line] = struct{}{}
	}
}

func (g *group) majority() string {
	best := ""
	bestCount := 0
	for _, s := range g.statusOrder {
		if g.statusCount[s] > bestCount {
			best = s
			bestCount = g.statusCount[s]
		}
	}
	return best
}

func (g *group) mergedLines() (string, bool) {
	if len(g.lines) == 0 {
		return "", false
	}
	lines := make([]string, 0, len(g.lines))
	for line := range g.lines {
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), true
}

// Aggregate groups photos by (zone id, sigla) and produces the status
// and comment tables. Groups keep the order in which they are first
// seen. Photos without a recognized zone kind are counted with the
// Quadra tables so they stay visible in the report.
func Aggregate(photos []models.Photo) *Tables {
	groups := make(map[groupKey]*group)
	var order []groupKey

	for _, p := range photos {
		kind := models.ZoneQuadra
		if p.ZoneKind == models.ZoneCanteiro {
			kind = models.ZoneCanteiro
		}
		key := groupKey{kind: kind, zoneID: p.ZoneID, sigla: p.Sigla}
		g, ok := groups[key]
		if !ok {
			g = &group{
				statusCount: make(map[string]int),
				lines:       make(map[string]struct{}),
			}
			groups[key] = g
			order = append(order, key)
		}
		g.addStatus(p.Status)
		g.addComment(p.Comment)
	}

	t := &Tables{}
	for _, key := range order {
		g := groups[key]
		row := Row{ZoneID: key.zoneID, Sigla: key.sigla, Status: g.majority()}
		text, hasComments := g.mergedLines()
		block := CommentBlock{ZoneID: key.zoneID, Sigla: key.sigla, Text: text}

		if key.kind == models.ZoneCanteiro {
			t.CanteiroRows = append(t.CanteiroRows, row)
			if hasComments {
				t.CanteiroComments = append(t.CanteiroComments, block)
			}
		} else {
			t.QuadraRows = append(t.QuadraRows, row)
			if hasComments {
				t.QuadraComments = append(t.QuadraComments, block)
			}
		}
	}
	return t
}
