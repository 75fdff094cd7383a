package models

import (
	"time"
)

// ZoneKind identifies the kind of management zone a photo belongs to.
type ZoneKind string

const (
	ZoneQuadra   ZoneKind = "Quadra"
	ZoneCanteiro ZoneKind = "Canteiro"
	ZoneUnknown  ZoneKind = "Unknown"
)

// Inspection statuses as they appear in the report. StatusNotDone is the
// default for photos without an explicit user edit.
const (
	StatusDone    = "Concluído"
	StatusPartial = "Parcial"
	StatusNotDone = "Não Concluído"
)

// UnknownSigla is the sentinel used when a zone has no usable sigla or a
// photo could not be classified.
const UnknownSigla = "Unknown"

// NoLocation is the caption line used for photos without GPS data.
const NoLocation = "Sem localização"

// Photo is one image file flowing through the pipeline.
type Photo struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Hash        string    `json:"hash"`
	TakenAt     time.Time `json:"taken_at"`
	HasGPS      bool      `json:"has_gps"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Orientation int       `json:"orientation"`

	// Classification result
	ZoneKind ZoneKind `json:"zone_kind"`
	ZoneID   string   `json:"zone_id"`
	Sigla    string   `json:"sigla"`
	Distance float64  `json:"distance"`

	// User-maintained fields merged from the edit store
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Include bool   `json:"include"`
	Order   int    `json:"order"`
}

// RecordOutcome classifies what happened to a single record during a
// pipeline phase.
type RecordOutcome string

const (
	RecordOK       RecordOutcome = "ok"
	RecordDegraded RecordOutcome = "degraded"
	RecordDropped  RecordOutcome = "dropped"
)

// RecordResult is the explicit per-record result of a recoverable
// pipeline step. Degraded records stay in the pipeline with sentinel
// values; dropped records are excluded from the report.
type RecordResult struct {
	Path    string        `json:"path"`
	Outcome RecordOutcome `json:"outcome"`
	Reason  string        `json:"reason,omitempty"`
}

// ImageEdit holds the user-maintained fields for one image, keyed by
// content hash in the edit store.
type ImageEdit struct {
	Comment string `json:"comment"`
	Status  string `json:"status"`
	Include bool   `json:"include"`
	Order   int    `json:"order"`
}

// DocumentSettings are the report-wide fields of the edit store.
type DocumentSettings struct {
	GeneralComments      string `json:"general_comments"`
	DisableStates        bool   `json:"disable_states"`
	DisableCommentsTable bool   `json:"disable_comments_table"`
	ReportDate           string `json:"report_date"`
	ToggleAllItems       bool   `json:"toggle_all_items"`
}

// ProgressFunc reports phase progress as (current, total). Implementations
// must be cheap; the pipeline calls it synchronously.
type ProgressFunc func(current, total int)

// NopProgress discards progress updates.
func NopProgress(int, int) {}
