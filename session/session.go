// Package session drives one report run over an image directory: scan
// and classify the photos, rename them to their canonical names, and
// produce the PDF and HTML reports. A Session owns the zone index, the
// edit store and the thumbnail cache; nothing here is process-global.
package session

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"

	"vistoria/config"
	"vistoria/exifmeta"
	"vistoria/geo"
	"vistoria/imaging"
	"vistoria/models"
	"vistoria/naming"
	"vistoria/report"
	"vistoria/store"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
}

// IsImageName reports whether name has a recognized image extension.
func IsImageName(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

type Session struct {
	cfg   *config.Config
	index *geo.Index
	edits *store.Store
	cache *imaging.Cache

	photos  []models.Photo
	results []models.RecordResult
}

// New opens a session for the configured image directory. A missing or
// unusable zones file and a corrupt edit store are fatal: no phase can
// run without them.
func New(cfg *config.Config) (*Session, error) {
	index, err := geo.Load(cfg.ZonesPath)
	if err != nil {
		return nil, err
	}
	edits, err := store.Open(filepath.Join(cfg.ImagesDir, store.DBFileName))
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:   cfg,
		index: index,
		edits: edits,
		cache: imaging.NewCache(cfg.ThumbnailCache),
	}, nil
}

// Photos returns the scanned photos in presentation order.
func (s *Session) Photos() []models.Photo { return s.photos }

// Results returns the per-record outcomes accumulated so far.
func (s *Session) Results() []models.RecordResult { return s.results }

// Store exposes the edit store for callers that update statuses,
// comments or document settings.
func (s *Session) Store() *store.Store { return s.edits }

// Scan reads every image in the directory, extracts its metadata,
// classifies it against the zone index and merges the stored edits.
// Per-file failures drop that file and the scan continues.
func (s *Session) Scan(progress models.ProgressFunc) error {
	if progress == nil {
		progress = models.NopProgress
	}

	entries, err := os.ReadDir(s.cfg.ImagesDir)
	if err != nil {
		return fmt.Errorf("failed to read image directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsImageName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	s.photos = s.photos[:0]
	s.results = s.results[:0]
	for i, name := range names {
		photo, result := s.scanOne(filepath.Join(s.cfg.ImagesDir, name), name)
		s.results = append(s.results, result)
		if result.Outcome == models.RecordDropped {
			log.Warnf("Dropped %s: %s", name, result.Reason)
		} else {
			s.photos = append(s.photos, photo)
		}
		progress(i+1, len(names))
	}

	log.Infof("Scanned %d images in %s (%d usable)", len(names), s.cfg.ImagesDir, len(s.photos))
	return nil
}

func (s *Session) scanOne(path, name string) (models.Photo, models.RecordResult) {
	result := models.RecordResult{Path: path, Outcome: models.RecordOK}

	meta, err := exifmeta.Read(path)
	if err != nil {
		result.Outcome = models.RecordDropped
		result.Reason = err.Error()
		return models.Photo{}, result
	}

	hash, pixelHash, err := imaging.ContentHash(path, meta.Orientation)
	if err != nil {
		result.Outcome = models.RecordDropped
		result.Reason = err.Error()
		return models.Photo{}, result
	}

	photo := models.Photo{
		Path:        path,
		Name:        name,
		Hash:        hash,
		TakenAt:     meta.TakenAt,
		HasGPS:      meta.HasGPS,
		Latitude:    meta.Latitude,
		Longitude:   meta.Longitude,
		Orientation: meta.Orientation,
	}

	if meta.HasGPS {
		photo.ZoneKind, photo.ZoneID, photo.Sigla, photo.Distance = s.index.Classify(meta.Latitude, meta.Longitude)
	} else {
		photo.ZoneKind = models.ZoneUnknown
		photo.ZoneID = models.UnknownSigla
		photo.Sigla = models.UnknownSigla
		photo.Distance = math.Inf(1)
	}

	var degraded []string
	if !meta.HasEXIF {
		degraded = append(degraded, "no EXIF block, capture time from file mtime")
	} else if !meta.HasGPS {
		degraded = append(degraded, "no GPS coordinates")
	}
	if !pixelHash {
		degraded = append(degraded, "pixels not decodable, hash from raw bytes")
	}
	if len(degraded) > 0 {
		result.Outcome = models.RecordDegraded
		result.Reason = strings.Join(degraded, "; ")
	}

	edit := s.edits.Edit(hash)
	photo.Status = edit.Status
	photo.Comment = edit.Comment
	photo.Include = edit.Include
	photo.Order = edit.Order
	s.edits.SetEdit(hash, edit)

	return photo, result
}

// RenameAll gives every scanned photo its canonical report name and
// updates the session's records to the new paths. Files that fail to
// rename are dropped from the pipeline.
func (s *Session) RenameAll(progress models.ProgressFunc) ([]naming.Result, error) {
	items := make([]naming.Item, len(s.photos))
	for i, p := range s.photos {
		items[i] = naming.Item{Path: p.Path, Sigla: p.Sigla, TakenAt: p.TakenAt}
	}

	results, err := naming.Rename(s.cfg.ImagesDir, items, progress)
	if err != nil {
		return nil, err
	}

	renamed := make(map[string]string, len(results))
	dropped := make(map[string]bool)
	for _, r := range results {
		switch r.Outcome {
		case models.RecordOK:
			renamed[r.OldPath] = r.NewPath
		case models.RecordDropped:
			dropped[r.OldPath] = true
			s.results = append(s.results, models.RecordResult{
				Path:    r.OldPath,
				Outcome: models.RecordDropped,
				Reason:  r.Reason,
			})
		}
	}

	kept := s.photos[:0]
	for _, p := range s.photos {
		if dropped[p.Path] {
			continue
		}
		if newPath, ok := renamed[p.Path]; ok {
			p.Path = newPath
			p.Name = filepath.Base(newPath)
		}
		kept = append(kept, p)
	}
	s.photos = kept
	sort.SliceStable(s.photos, func(i, j int) bool {
		return s.photos[i].Name < s.photos[j].Name
	})
	return results, nil
}

// BuildReport renders the PDF and the HTML report for the included
// photos and returns the page plan and the PDF path.
func (s *Session) BuildReport(includeSignature bool, progress models.ProgressFunc) (*report.Plan, string, error) {
	var entries []report.Entry
	for _, p := range s.photos {
		if !p.Include {
			continue
		}
		entries = append(entries, report.Entry{Photo: p, Thumb: s.thumbnail(p)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Photo.Order < entries[j].Photo.Order
	})

	reportDate := s.edits.Doc.ReportDate
	if reportDate == "" {
		reportDate = time.Now().Format("02/01/2006")
	}
	pdfPath := filepath.Join(s.cfg.ImagesDir, ReportFileName(reportDate))

	params := &report.Params{
		OutputPath:           pdfPath,
		HeaderLine1:          s.cfg.HeaderLine1,
		HeaderLine2:          s.cfg.HeaderLine2,
		ReportTitle:          s.cfg.ReportTitle,
		FooterLines:          s.cfg.FooterLines(),
		ReportDate:           reportDate,
		Contract:             s.cfg.Contract,
		Description:          s.cfg.Description,
		FiscalName:           s.cfg.FiscalName,
		ContractedName:       s.cfg.ContractedName,
		Location:             s.cfg.Location,
		GeneralComments:      s.edits.Doc.GeneralComments,
		DisableStates:        s.edits.Doc.DisableStates,
		DisableCommentsTable: s.edits.Doc.DisableCommentsTable,
		IncludeSignature:     includeSignature,
		JPEGQuality:          s.cfg.JPEGQuality,
		Entries:              entries,
		Progress:             progress,
	}

	plan, err := report.Build(params)
	if err != nil {
		return nil, "", err
	}
	if err := report.WriteHTML(s.cfg.ImagesDir, params); err != nil {
		return nil, "", err
	}
	return plan, pdfPath, nil
}

// thumbnail returns the cached thumbnail for a photo, building it on a
// miss. A photo whose pixels cannot be decoded keeps flowing with a nil
// thumbnail and a degraded record.
func (s *Session) thumbnail(p models.Photo) image.Image {
	if img, ok := s.cache.Get(p.Hash); ok {
		return img
	}
	img, err := imaging.Thumbnail(p.Path, p.Orientation, s.cfg.ThumbnailMax)
	if err != nil {
		log.Warnf("Failed to build thumbnail for %s: %v", p.Name, err)
		s.results = append(s.results, models.RecordResult{
			Path:    p.Path,
			Outcome: models.RecordDegraded,
			Reason:  fmt.Sprintf("thumbnail failed: %v", err),
		})
		return nil
	}
	s.cache.Put(p.Hash, img)
	return img
}

// Save persists the edit store next to the images.
func (s *Session) Save() error {
	return s.edits.Save()
}

// ReportFileName derives the dated PDF name from a dd/mm/yyyy report
// date; an unparseable date falls back to today.
func ReportFileName(reportDate string) string {
	t, err := time.Parse("02/01/2006", reportDate)
	if err != nil {
		t = time.Now()
	}
	return t.Format("060102") + "_Relatorio.pdf"
}
