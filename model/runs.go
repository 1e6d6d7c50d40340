// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import "time"

// Category values as stored in file_results.category.
const (
	CategoryUnambiguous = "unambiguous"
	CategoryAmbiguous   = "ambiguous"
	CategoryPartial     = "partial"
	CategoryFailed      = "failed"
)

// Run is one batch run over a directory tree.
type Run struct {
	ID          int64     `json:"id"                  db:"id"`
	Root        string    `json:"root"                db:"root"`
	Grammar     string    `json:"grammar"             db:"grammar"` // "builtin" or the fragment directory
	StartedAt   time.Time `json:"startedAt"           db:"started_at"`
	FinishedAt  time.Time `json:"finishedAt"          db:"finished_at"` // zero while running
	Total       int       `json:"total"               db:"total"`
	Unambiguous int       `json:"unambiguous"         db:"unambiguous"`
	Ambiguous   int       `json:"ambiguous"           db:"ambiguous"`
	Partial     int       `json:"partial"             db:"partial"`
	Failed      int       `json:"failed"              db:"failed"`
	ErrorCode   string    `json:"errorCode,omitempty" db:"error_code"` // set when the run was aborted
}

// FileResult is the classification of one file in a run.
type FileResult struct {
	ID       int64         `json:"id"       db:"id"`
	RunID    int64         `json:"runId"    db:"run_id"`
	Path     string        `json:"path"     db:"path"`
	Digest   string        `json:"digest"   db:"digest"` // hex BLAKE2b-256 of the contents
	Category string        `json:"category" db:"category"`
	Bytes    int           `json:"bytes"    db:"bytes"`
	Tokens   int           `json:"tokens"   db:"tokens"`
	Elapsed  time.Duration `json:"elapsed"  db:"elapsed_ns"`
}

// Change is a file whose category differs between two runs.
// An empty category means the file wasn't part of that run.
type Change struct {
	Path     string `json:"path"`
	From     string `json:"from"`
	To       string `json:"to"`
	Modified bool   `json:"modified"` // the digests differ
}
