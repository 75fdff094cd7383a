package naming

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"

	"vistoria/models"
)

// friendlyPattern matches files already carrying a canonical report name,
// e.g. "012 - Q-A.jpg". Such files are never renamed or renumbered.
var friendlyPattern = regexp.MustCompile(`^\d{3}\s*-\s*.+\.\w+$`)

// IsFriendly reports whether base is already a canonical report name.
func IsFriendly(base string) bool {
	return friendlyPattern.MatchString(base)
}

// SanitizeSigla replaces characters that are unsafe in file names with
// hyphens.
func SanitizeSigla(sigla string) string {
	return siglaSanitizer.Replace(sigla)
}

var siglaSanitizer = strings.NewReplacer(
	"<", "-", ">", "-", ":", "-", `"`, "-",
	"/", "-", `\`, "-", "|", "-", "?", "-", "*", "-",
)

// Item is one image file entering the rename pipeline.
type Item struct {
	Path    string
	Sigla   string
	TakenAt time.Time
}

// Result is the explicit per-file outcome of a rename run. Dropped files
// keep whatever name they had when the failure happened and leave the
// pipeline.
type Result struct {
	OldPath string
	NewPath string
	Outcome models.RecordOutcome
	Reason  string
}

// Rename gives every candidate in dir its canonical name
// "{seq:03d} - {sigla}{ext}" in two phases: first every candidate moves to
// a random collision-free numeric name, then the scrambled files receive
// their final names grouped by sigla (case-insensitive) and ordered by
// capture time, with the sequence starting at 1 per sigla.
//
// The directory is snapshotted once and the full plan is computed before
// any file is touched. Renaming is sequential; a per-file failure drops
// that file and the run continues.
func Rename(dir string, items []Item, progress models.ProgressFunc) ([]Result, error) {
	if progress == nil {
		progress = models.NopProgress
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot directory: %w", err)
	}
	taken := make(map[string]bool, len(entries))
	for _, e := range entries {
		taken[e.Name()] = true
	}

	results := make([]Result, 0, len(items))
	var candidates []Item
	for _, item := range items {
		if IsFriendly(filepath.Base(item.Path)) {
			results = append(results, Result{
				OldPath: item.Path,
				NewPath: item.Path,
				Outcome: models.RecordOK,
				Reason:  "canonical name kept",
			})
			continue
		}
		candidates = append(candidates, item)
	}
	if len(candidates) == 0 {
		return results, nil
	}

	// Plan both phases up front against the snapshot.
	scrambled := planScramble(candidates, taken)
	finals := planCanonical(candidates, scrambled, taken)

	total := 2 * len(candidates)
	done := 0

	// Phase 1: move every candidate out of the way.
	failed := make(map[int]bool)
	for i, item := range candidates {
		newPath := filepath.Join(dir, scrambled[i])
		if err := os.Rename(item.Path, newPath); err != nil {
			log.Errorf("Failed to scramble %s: %v", item.Path, err)
			failed[i] = true
			results = append(results, Result{
				OldPath: item.Path,
				NewPath: item.Path,
				Outcome: models.RecordDropped,
				Reason:  fmt.Sprintf("rename failed: %v", err),
			})
		}
		done++
		progress(done, total)
	}

	// Phase 2: scrambled files receive their canonical names.
	for i, item := range candidates {
		if failed[i] {
			done++
			progress(done, total)
			continue
		}
		oldPath := filepath.Join(dir, scrambled[i])
		newPath := filepath.Join(dir, finals[i])
		if err := os.Rename(oldPath, newPath); err != nil {
			log.Errorf("Failed to rename %s to %s: %v", oldPath, finals[i], err)
			results = append(results, Result{
				OldPath: item.Path,
				NewPath: oldPath,
				Outcome: models.RecordDropped,
				Reason:  fmt.Sprintf("rename failed: %v", err),
			})
		} else {
			results = append(results, Result{
				OldPath: item.Path,
				NewPath: newPath,
				Outcome: models.RecordOK,
			})
		}
		done++
		progress(done, total)
	}

	return results, nil
}

// planScramble assigns each candidate a random 8-digit name unique against
// the directory snapshot and every name assigned so far.
func planScramble(candidates []Item, taken map[string]bool) []string {
	names := make([]string, len(candidates))
	for i, item := range candidates {
		ext := filepath.Ext(item.Path)
		for {
			name := fmt.Sprintf("%08d%s", rand.Intn(100000000), ext)
			if !taken[name] {
				names[i] = name
				taken[name] = true
				break
			}
		}
	}
	return names
}

// planCanonical computes the final name for each candidate. Candidates are
// grouped by sigla (case-insensitive) and sorted by capture time; each
// group numbers its files from 1. A name colliding with an existing file
// advances the sequence and retries.
func planCanonical(candidates []Item, scrambled []string, taken map[string]bool) []string {
	// Scrambled names are transient; their slots are free for finals.
	for _, name := range scrambled {
		delete(taken, name)
	}

	groups := make(map[string][]int)
	var groupOrder []string
	for i, item := range candidates {
		key := strings.ToUpper(item.Sigla)
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], i)
	}

	finals := make([]string, len(candidates))
	for _, key := range groupOrder {
		idxs := groups[key]
		sort.SliceStable(idxs, func(a, b int) bool {
			return candidates[idxs[a]].TakenAt.Before(candidates[idxs[b]].TakenAt)
		})

		seq := 0
		for _, i := range idxs {
			item := candidates[i]
			ext := filepath.Ext(item.Path)
			sigla := SanitizeSigla(item.Sigla)
			seq++
			name := fmt.Sprintf("%03d - %s%s", seq, sigla, ext)
			for taken[name] {
				seq++
				name = fmt.Sprintf("%03d - %s%s", seq, sigla, ext)
			}
			finals[i] = name
			taken[name] = true
		}
	}
	return finals
}
