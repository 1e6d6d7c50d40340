// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package harness runs the parser over source files and classifies each
// parse as unambiguous, ambiguous, partial or failed.
package harness

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mdhender/forester"
	"github.com/mdhender/forester/ambiguity"
	"github.com/mdhender/forester/engine"
	"github.com/mdhender/forester/forest"
	"github.com/mdhender/forester/model"
	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"
)

// Engine tokenizes and parses one input.
type Engine interface {
	Tokenize(ctx context.Context, name string, input []byte) (*forester.TokenStream, error)
	Parse(ctx context.Context, ts *forester.TokenStream) engine.Result
}

// Recorder defines the store operations needed to persist runs.
type Recorder interface {
	BeginRun(ctx context.Context, run *model.Run) (int64, error)
	RecordFile(ctx context.Context, fr *model.FileResult) error
	FinishRun(ctx context.Context, run *model.Run) error
}

// Harness classifies files. It processes one file at a time.
type Harness struct {
	engine      Engine
	fs          afero.Fs
	logger      *slog.Logger
	stdout      io.Writer
	stderr      io.Writer
	verbose     bool
	width       int
	color       bool
	patterns    []string
	recorder    Recorder
	grammarName string
}

func New(e Engine, options ...Option) (*Harness, error) {
	h := &Harness{
		engine:      e,
		fs:          afero.NewOsFs(),
		logger:      slog.Default(),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		width:       80,
		patterns:    []string{DefaultPattern},
		grammarName: "builtin",
	}
	for _, option := range options {
		if err := option(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// FileResult is the classification of one file.
type FileResult struct {
	Path        string
	Category    Category
	Result      engine.Result    // zero when tokenizing failed
	TokenizeErr error            // set when tokenizing failed
	Ambiguity   *ambiguity.Error // set when Category is Ambiguous
	Bytes       int
	Tokens      int
	Digest      string // hex BLAKE2b-256 of the contents
	Elapsed     time.Duration
}

// Format writes the full result: the parse outcome, the forest and the
// category.
func (fr *FileResult) Format(w io.Writer) error {
	if fr.TokenizeErr != nil {
		_, err := fmt.Fprintf(w, "%s: %v\ncategory: %s\n", engine.NoParse, fr.TokenizeErr, fr.Category)
		return err
	}
	if err := fr.Result.Format(w); err != nil {
		return err
	}
	if fr.Ambiguity != nil {
		h := fr.Result.Handle
		_, err := fmt.Fprintf(w, "category: %s (%s at %s)\n", fr.Category, fr.Ambiguity.Tag, h.Forest.Format(fr.Ambiguity.Node))
		return err
	}
	_, err := fmt.Fprintf(w, "category: %s\n", fr.Category)
	return err
}

// ClassifyFile reads, tokenizes, parses and classifies one file.
//
// Only problems with the harness itself are errors: a file that can't be
// read, or a forest that is malformed. A file that doesn't tokenize or
// doesn't parse is Failed.
func (h *Harness) ClassifyFile(ctx context.Context, path string) (*FileResult, error) {
	started := time.Now()
	data, err := afero.ReadFile(h.fs, path)
	if err != nil {
		return nil, &ErrReadFile{Path: path, Err: err}
	}
	sum := blake2b.Sum256(data)
	fr := &FileResult{Path: path, Bytes: len(data), Digest: hex.EncodeToString(sum[:])}

	ts, err := h.engine.Tokenize(ctx, path, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		fr.Category, fr.TokenizeErr = Failed, err
		fr.Elapsed = time.Since(started)
		h.logger.Debug("harness: tokenize failed", "file", path, "error", err)
		return fr, nil
	}
	fr.Tokens = ts.Len()

	fr.Result = h.engine.Parse(ctx, ts)
	if fr.Result.Err != nil {
		return nil, fr.Result.Err
	}
	switch fr.Result.Outcome {
	case engine.Success:
		handle := fr.Result.Handle
		if err := ambiguity.Check(handle.Forest, handle.Root); err == nil {
			fr.Category = Unambiguous
		} else if errors.Is(err, forest.ErrMoreThanOne) {
			fr.Category = Ambiguous
			errors.As(err, &fr.Ambiguity)
		} else {
			return nil, &ErrForest{Path: path, Err: err}
		}
	case engine.TooShort:
		fr.Category = Partial
	default:
		fr.Category = Failed
	}
	fr.Elapsed = time.Since(started)
	h.logger.Debug("harness: classified", "file", path, "category", fr.Category, "tokens", fr.Tokens, "elapsed", fr.Elapsed)
	return fr, nil
}

// File classifies a single file and writes its full result to stderr.
// If graphvizPath is not empty and the parse produced a forest, the forest
// is written there as a Graphviz digraph.
func (h *Harness) File(ctx context.Context, path, graphvizPath string) (*FileResult, error) {
	fr, err := h.ClassifyFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if handle := fr.Result.Handle; graphvizPath != "" && handle != nil {
		if err := h.writeGraphviz(graphvizPath, handle.Forest); err != nil {
			return nil, err
		}
	}
	if err := fr.Format(h.stderr); err != nil {
		return nil, &ErrWriteFile{Op: "write", Path: "stderr", Err: err}
	}
	return fr, nil
}

func (h *Harness) writeGraphviz(path string, f forest.Forest) error {
	w, err := h.fs.Create(path)
	if err != nil {
		return &ErrWriteFile{Op: "create", Path: path, Err: err}
	}
	if err := f.DumpGraphviz(w); err != nil {
		w.Close()
		return &ErrWriteFile{Op: "write", Path: path, Err: err}
	}
	if err := w.Close(); err != nil {
		return &ErrWriteFile{Op: "close", Path: path, Err: err}
	}
	return nil
}

// Dir classifies every input file below root, one at a time, and writes
// the summary to stdout. In compact mode a status character is written
// per file; in verbose mode the full result of each file is written to
// stderr, prefixed by its path.
//
// A fatal error stops the run. The run is still recorded, with the error
// code, when a recorder is set.
func (h *Harness) Dir(ctx context.Context, root string) (Counts, error) {
	started := time.Now()
	run := &model.Run{Root: root, Grammar: h.grammarName, StartedAt: started.UTC()}
	if h.recorder != nil {
		if _, err := h.recorder.BeginRun(ctx, run); err != nil {
			return Counts{}, &ErrDatabase{Op: "begin run", Err: err}
		}
	}

	counts, bytes, err := h.dir(ctx, root, run)
	if h.recorder != nil {
		run.Total, run.Unambiguous, run.Ambiguous = counts.Total, counts.Unambiguous, counts.Ambiguous
		run.Partial, run.Failed = counts.Partial, counts.Failed
		if err != nil {
			run.ErrorCode = ErrorCode(err)
		} else {
			run.FinishedAt = time.Now().UTC()
		}
		// an interrupted run must still be closed out with its error code
		if finishErr := h.recorder.FinishRun(context.WithoutCancel(ctx), run); finishErr != nil {
			if err != nil {
				h.logger.Error("harness: finish run", "run", run.ID, "error", finishErr)
			} else {
				err = &ErrDatabase{Op: "finish run", Err: finishErr}
			}
		}
	}
	if err != nil {
		return counts, err
	}

	h.logger.Info("dir",
		"root", root,
		"files", counts.Total,
		"bytes", humanize.Bytes(uint64(bytes)),
		"elapsed", time.Since(started).Round(time.Millisecond),
		"run", run.ID)
	return counts, nil
}

func (h *Harness) dir(ctx context.Context, root string, run *model.Run) (Counts, int, error) {
	var counts Counts
	files, err := CollectInputs(h.fs, root, h.patterns)
	if err != nil {
		return counts, 0, err
	}
	h.logger.Debug("harness: inputs", "root", root, "files", len(files))

	bytes, p := 0, newProgress(h.stdout, h.width, h.color)
	for _, path := range files {
		fr, err := h.ClassifyFile(ctx, path)
		if err != nil {
			p.finish()
			return counts, bytes, err
		}
		counts.Add(fr.Category)
		bytes += fr.Bytes

		if h.recorder != nil {
			err := h.recorder.RecordFile(ctx, &model.FileResult{
				RunID:    run.ID,
				Path:     fr.Path,
				Digest:   fr.Digest,
				Category: fr.Category.String(),
				Bytes:    fr.Bytes,
				Tokens:   fr.Tokens,
				Elapsed:  fr.Elapsed,
			})
			if err != nil {
				p.finish()
				return counts, bytes, &ErrDatabase{Op: "record file", Err: err}
			}
		}

		if h.verbose {
			if _, err := fmt.Fprintf(h.stderr, "%s: ", path); err != nil {
				return counts, bytes, &ErrWriteFile{Op: "write", Path: "stderr", Err: err}
			}
			if err := fr.Format(h.stderr); err != nil {
				return counts, bytes, &ErrWriteFile{Op: "write", Path: "stderr", Err: err}
			}
		} else if err := p.put(fr.Category); err != nil {
			return counts, bytes, &ErrWriteFile{Op: "write", Path: "stdout", Err: err}
		}
	}

	if err := p.finish(); err != nil {
		return counts, bytes, &ErrWriteFile{Op: "write", Path: "stdout", Err: err}
	}
	if err := WriteSummary(h.stdout, counts); err != nil {
		return counts, bytes, &ErrWriteFile{Op: "write", Path: "stdout", Err: err}
	}
	return counts, bytes, nil
}
