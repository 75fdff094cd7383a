package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"

	"vistoria/models"
)

// DBFileName is the edit store file kept next to the images.
const DBFileName = "imagens_db.json"

// Store holds the user-maintained edits for a report: per-image fields
// keyed by content hash, plus the document-level settings. Keying by
// content hash keeps edits attached across file renames.
type Store struct {
	path   string
	images map[string]models.ImageEdit

	Doc models.DocumentSettings
}

// fileFormat is the on-disk shape. Boolean fields that default to true
// are pointers so that files written by older versions, which omitted
// them, keep their meaning.
type fileFormat struct {
	Images               map[string]imageEntry `json:"images"`
	GeneralComments      string                `json:"general_comments"`
	DisableStates        bool                  `json:"disable_states"`
	DisableCommentsTable bool                  `json:"disable_comments_table"`
	ReportDate           string                `json:"report_date"`
	ToggleAllItems       *bool                 `json:"toggle_all_items"`
}

type imageEntry struct {
	Comment string `json:"comment"`
	Status  string `json:"status"`
	Include *bool  `json:"include"`
	Order   int    `json:"order"`
}

// Open loads the edit store at path. A missing file yields an empty
// store; an unreadable or corrupt file is an error, since silently
// starting over would discard the user's edits.
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		images: make(map[string]models.ImageEdit),
		Doc:    models.DocumentSettings{ToggleAllItems: true},
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read edit store: %w", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("failed to parse edit store %s: %w", path, err)
	}

	for hash, e := range ff.Images {
		edit := models.ImageEdit{
			Comment: e.Comment,
			Status:  e.Status,
			Include: e.Include == nil || *e.Include,
			Order:   e.Order,
		}
		s.images[hash] = edit
	}
	s.Doc = models.DocumentSettings{
		GeneralComments:      ff.GeneralComments,
		DisableStates:        ff.DisableStates,
		DisableCommentsTable: ff.DisableCommentsTable,
		ReportDate:           ff.ReportDate,
		ToggleAllItems:       ff.ToggleAllItems == nil || *ff.ToggleAllItems,
	}

	log.Infof("Loaded %d image edits from %s", len(s.images), path)
	return s, nil
}

// Edit returns the stored edit for hash, or the defaults for an image
// that was never edited: default status, no comment, and the include
// flag following the document's master toggle.
func (s *Store) Edit(hash string) models.ImageEdit {
	edit, ok := s.images[hash]
	if !ok {
		return models.ImageEdit{Status: models.StatusNotDone, Include: s.Doc.ToggleAllItems}
	}
	if edit.Status == "" {
		edit.Status = models.StatusNotDone
	}
	return edit
}

// SetEdit stores the edit for hash.
func (s *Store) SetEdit(hash string, edit models.ImageEdit) {
	s.images[hash] = edit
}

// Len returns the number of stored image edits.
func (s *Store) Len() int {
	return len(s.images)
}

// Save writes the store atomically: a temp file in the same directory is
// renamed over the target.
func (s *Store) Save() error {
	ff := fileFormat{
		Images:               make(map[string]imageEntry, len(s.images)),
		GeneralComments:      s.Doc.GeneralComments,
		DisableStates:        s.Doc.DisableStates,
		DisableCommentsTable: s.Doc.DisableCommentsTable,
		ReportDate:           s.Doc.ReportDate,
		ToggleAllItems:       &s.Doc.ToggleAllItems,
	}
	for hash, edit := range s.images {
		include := edit.Include
		ff.Images[hash] = imageEntry{
			Comment: edit.Comment,
			Status:  edit.Status,
			Include: &include,
			Order:   edit.Order,
		}
	}

	data, err := json.MarshalIndent(&ff, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode edit store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, DBFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write edit store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close edit store: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace edit store: %w", err)
	}
	return nil
}
