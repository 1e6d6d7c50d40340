// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package harness_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mdhender/forester"
	"github.com/mdhender/forester/engine"
	"github.com/mdhender/forester/forest"
	"github.com/mdhender/forester/grammar"
	"github.com/mdhender/forester/harness"
	"github.com/mdhender/forester/model"
	store "github.com/mdhender/forester/stores/sqlite"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Word is one identifier or two, so "a b" has two derivations.
// An integer needs a trailing ";".
const words = `
start: File
rules:
  File: {rep: Word}
  Word: {any: [IDENT, [IDENT, IDENT], [INTEGER, ";"]]}
`

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wordsEngine(t *testing.T) *engine.Engine {
	t.Helper()
	g, err := grammar.Parse("words.yaml", []byte(words))
	require.NoError(t, err)
	e, err := engine.New(g, engine.WithLogger(quiet()))
	require.NoError(t, err)
	return e
}

func newHarness(t *testing.T, e harness.Engine, fs afero.Fs, stdout, stderr io.Writer, options ...harness.Option) *harness.Harness {
	t.Helper()
	options = append([]harness.Option{
		harness.WithFS(fs),
		harness.WithLogger(quiet()),
		harness.WithOutput(stdout, stderr),
	}, options...)
	h, err := harness.New(e, options...)
	require.NoError(t, err)
	return h
}

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, text := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(text), 0o644))
	}
}

func TestClassifyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"one.rs":      "a",
		"two.rs":      "a b",
		"partial.rs":  "a 1",
		"none.rs":     "1",
		"empty.rs":    "",
		"unclosed.rs": "a (",
	})
	h := newHarness(t, wordsEngine(t), fs, io.Discard, io.Discard)

	for _, tc := range []struct {
		path string
		want harness.Category
	}{
		{"one.rs", harness.Unambiguous},
		{"two.rs", harness.Ambiguous},
		{"partial.rs", harness.Partial},
		{"none.rs", harness.Failed},
		{"empty.rs", harness.Unambiguous},
		{"unclosed.rs", harness.Failed},
	} {
		t.Run(tc.path, func(t *testing.T) {
			fr, err := h.ClassifyFile(context.Background(), tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, fr.Category)
			assert.Len(t, fr.Digest, 64)
		})
	}

	t.Run("ambiguity", func(t *testing.T) {
		fr, err := h.ClassifyFile(context.Background(), "two.rs")
		require.NoError(t, err)
		require.NotNil(t, fr.Ambiguity)
		assert.Equal(t, forest.Split, fr.Ambiguity.Tag)
	})

	t.Run("tokenize error", func(t *testing.T) {
		fr, err := h.ClassifyFile(context.Background(), "unclosed.rs")
		require.NoError(t, err)
		var te *forester.TokenizeError
		assert.ErrorAs(t, fr.TokenizeErr, &te)
		assert.Nil(t, fr.Result.Handle)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := h.ClassifyFile(context.Background(), "missing.rs")
		var re *harness.ErrReadFile
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "missing.rs", re.Path)
		assert.Equal(t, harness.ErrCodeReadFile, harness.ErrorCode(err))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := h.ClassifyFile(ctx, "two.rs")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"src/a.rs":        "a",
		"src/b.rs":        "a b",
		"src/nested/c.rs": "a 1",
		"src/nested/d.rs": "1",
		"src/notes.txt":   "not rust",
	})
	var stdout, stderr bytes.Buffer
	h := newHarness(t, wordsEngine(t), fs, &stdout, &stderr)

	counts, err := h.Dir(context.Background(), "src")
	require.NoError(t, err)
	assert.Equal(t, harness.Counts{Total: 4, Unambiguous: 1, Ambiguous: 1, Partial: 1, Failed: 1}, counts)

	// afero walks in lexical order
	want := "~!.X\n" +
		"Out of 4 files tested:\n" +
		"* 1 parsed fully and unambiguously\n" +
		"* 1 parsed fully (but ambiguously)\n" +
		"* 1 parsed partially (only a prefix)\n" +
		"* 1 didn't parse at all\n"
	assert.Equal(t, want, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestDir_Empty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("src", 0o755))
	var stdout bytes.Buffer
	h := newHarness(t, wordsEngine(t), fs, &stdout, io.Discard)

	counts, err := h.Dir(context.Background(), "src")
	require.NoError(t, err)
	assert.Zero(t, counts.Total)
	assert.True(t, strings.HasPrefix(stdout.String(), "Out of 0 files tested:\n"))
}

func TestDir_Verbose(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"src/a.rs": "a",
		"src/d.rs": "1",
	})
	var stdout, stderr bytes.Buffer
	h := newHarness(t, wordsEngine(t), fs, &stdout, &stderr, harness.WithVerbose(true))

	_, err := h.Dir(context.Background(), "src")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout.String(), "Out of 2 files tested:\n"), "no status characters in verbose mode")

	a, d := filepath.Join("src", "a.rs"), filepath.Join("src", "d.rs")
	assert.Contains(t, stderr.String(), a+": Success: File @ 0..1 (1 of 1 tokens)\n")
	assert.Contains(t, stderr.String(), "category: unambiguous\n")
	assert.Contains(t, stderr.String(), d+": NoParse\ncategory: failed\n")
}

func TestDir_Patterns(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"src/a.rs":        "a",
		"src/tests/b.rs":  "a b",
		"src/tests/c.txt": "a",
	})
	var stdout bytes.Buffer
	h := newHarness(t, wordsEngine(t), fs, &stdout, io.Discard, harness.WithPatterns("tests/**/*"))

	counts, err := h.Dir(context.Background(), "src")
	require.NoError(t, err)
	assert.Equal(t, harness.Counts{Total: 2, Unambiguous: 1, Ambiguous: 1}, counts)
}

func TestDir_MissingRoot(t *testing.T) {
	h := newHarness(t, wordsEngine(t), afero.NewMemMapFs(), io.Discard, io.Discard)
	_, err := h.Dir(context.Background(), "nowhere")
	var we *harness.ErrWalk
	require.ErrorAs(t, err, &we)
	assert.Equal(t, harness.ErrCodeWalk, harness.ErrorCode(err))
}

func TestFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"two.rs": "a b", "partial.rs": "a 1", "none.rs": "1"})
	var stderr bytes.Buffer
	h := newHarness(t, wordsEngine(t), fs, io.Discard, &stderr)

	fr, err := h.File(context.Background(), "two.rs", "two.dot")
	require.NoError(t, err)
	assert.Equal(t, harness.Ambiguous, fr.Category)
	assert.Contains(t, stderr.String(), "Success: File @ 0..2 (2 of 2 tokens)\n")
	assert.Contains(t, stderr.String(), "category: ambiguous (Split at ")

	dot, err := afero.ReadFile(fs, "two.dot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(dot), "digraph"), "got %q", dot)

	// a prefix parse still has a forest
	fr, err = h.File(context.Background(), "partial.rs", "partial.dot")
	require.NoError(t, err)
	assert.Equal(t, harness.Partial, fr.Category)
	dot, err = afero.ReadFile(fs, "partial.dot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(dot), "digraph"), "got %q", dot)

	// no forest, no dump
	_, err = h.File(context.Background(), "none.rs", "none.dot")
	require.NoError(t, err)
	exists, err := afero.Exists(fs, "none.dot")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFile_ReadOnlyGraphviz(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"one.rs": "a"})
	h := newHarness(t, wordsEngine(t), afero.NewReadOnlyFs(fs), io.Discard, io.Discard)

	_, err := h.File(context.Background(), "one.rs", "one.dot")
	var we *harness.ErrWriteFile
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "create", we.Op)
	assert.Equal(t, harness.ErrCodeWriteFile, harness.ErrorCode(err))
}

// statusEngine parses every file as a single token whose classification
// is given by the file's first byte: ~ ! . or X.
type statusEngine struct{}

func (statusEngine) Tokenize(_ context.Context, name string, input []byte) (*forester.TokenStream, error) {
	return &forester.TokenStream{Name: name, Input: input}, nil
}

func (statusEngine) Parse(_ context.Context, ts *forester.TokenStream) engine.Result {
	kinds := forest.NewKinds()
	a, b := kinds.Add("A"), kinds.Add("B")
	root := kinds.AddShape("Root", forest.ChoiceShape())
	store := forest.NewStore(kinds)
	n := forest.Node{Kind: root, Start: 0, End: 1}
	handle := &engine.Handle{Root: n, Forest: store, Stream: ts}

	switch ts.Input[0] {
	case '~':
		store.AddChoice(n, a)
		return engine.Result{Outcome: engine.Success, Handle: handle}
	case '!':
		store.AddChoice(n, a)
		store.AddChoice(n, b)
		return engine.Result{Outcome: engine.Success, Handle: handle}
	case '.':
		store.AddChoice(n, a)
		return engine.Result{Outcome: engine.TooShort, Handle: handle}
	}
	return engine.Result{Outcome: engine.NoParse}
}

func TestDir_Wraps(t *testing.T) {
	fs := afero.NewMemMapFs()
	status := strings.Repeat("~", 100) + strings.Repeat("!", 20) + strings.Repeat(".", 20) + strings.Repeat("X", 20)
	for i := 0; i < len(status); i++ {
		// zero padded so the walk order is the creation order
		writeFiles(t, fs, map[string]string{fmt.Sprintf("src/%03d.rs", i): status[i : i+1]})
	}
	var stdout bytes.Buffer
	h := newHarness(t, statusEngine{}, fs, &stdout, io.Discard)

	counts, err := h.Dir(context.Background(), "src")
	require.NoError(t, err)
	assert.Equal(t, harness.Counts{Total: 160, Unambiguous: 100, Ambiguous: 20, Partial: 20, Failed: 20}, counts)

	lines := strings.Split(stdout.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, strings.Repeat("~", 80), lines[0])
	assert.Equal(t, strings.Repeat("~", 20)+strings.Repeat("!", 20)+strings.Repeat(".", 20)+strings.Repeat("X", 20), lines[1])
	assert.Equal(t, "Out of 160 files tested:", lines[2])
	assert.Contains(t, stdout.String(), "* 100 parsed fully and unambiguously\n")
	assert.Contains(t, stdout.String(), "* 20 didn't parse at all\n")
}

func TestDir_Width(t *testing.T) {
	fs := afero.NewMemMapFs()
	for i := 0; i < 5; i++ {
		writeFiles(t, fs, map[string]string{fmt.Sprintf("src/%d.rs", i): "~"})
	}
	var stdout bytes.Buffer
	h := newHarness(t, statusEngine{}, fs, &stdout, io.Discard, harness.WithWidth(2))

	_, err := h.Dir(context.Background(), "src")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout.String(), "~~\n~~\n~\nOut of 5"), "got %q", stdout.String())
}

// recorder keeps runs and file results in memory.
type recorder struct {
	runs     []*model.Run
	files    []*model.FileResult
	finished []*model.Run
	fail     string
}

func (r *recorder) BeginRun(_ context.Context, run *model.Run) (int64, error) {
	if r.fail == "begin" {
		return 0, errors.New("disk full")
	}
	run.ID = int64(len(r.runs) + 1)
	r.runs = append(r.runs, run)
	return run.ID, nil
}

func (r *recorder) RecordFile(_ context.Context, fr *model.FileResult) error {
	if r.fail == "record" {
		return errors.New("disk full")
	}
	r.files = append(r.files, fr)
	return nil
}

func (r *recorder) FinishRun(_ context.Context, run *model.Run) error {
	r.finished = append(r.finished, run)
	return nil
}

func TestDir_Recorder(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"src/a.rs": "a",
		"src/b.rs": "a b",
		"src/c.rs": "1",
	})
	rec := &recorder{}
	h := newHarness(t, wordsEngine(t), fs, io.Discard, io.Discard,
		harness.WithRecorder(rec), harness.WithGrammarName("words"))

	_, err := h.Dir(context.Background(), "src")
	require.NoError(t, err)
	require.Len(t, rec.finished, 1)
	run := rec.finished[0]
	assert.Equal(t, int64(1), run.ID)
	assert.Equal(t, "words", run.Grammar)
	assert.Equal(t, 3, run.Total)
	assert.Equal(t, 1, run.Ambiguous)
	assert.Empty(t, run.ErrorCode)
	assert.False(t, run.FinishedAt.IsZero())

	require.Len(t, rec.files, 3)
	for _, fr := range rec.files {
		assert.Equal(t, int64(1), fr.RunID)
	}
	assert.Equal(t, model.CategoryAmbiguous, rec.files[1].Category)
}

func TestDir_RecorderFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"src/a.rs": "a"})

	t.Run("begin", func(t *testing.T) {
		rec := &recorder{fail: "begin"}
		h := newHarness(t, wordsEngine(t), fs, io.Discard, io.Discard, harness.WithRecorder(rec))
		_, err := h.Dir(context.Background(), "src")
		var de *harness.ErrDatabase
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "begin run", de.Op)
		assert.Empty(t, rec.finished)
	})

	t.Run("record", func(t *testing.T) {
		rec := &recorder{fail: "record"}
		h := newHarness(t, wordsEngine(t), fs, io.Discard, io.Discard, harness.WithRecorder(rec))
		_, err := h.Dir(context.Background(), "src")
		require.Error(t, err)
		require.Len(t, rec.finished, 1)
		assert.Equal(t, harness.ErrCodeDatabase, rec.finished[0].ErrorCode)
		assert.True(t, rec.finished[0].FinishedAt.IsZero())
	})
}

func TestOptions(t *testing.T) {
	_, err := harness.New(statusEngine{}, harness.WithWidth(0))
	assert.Error(t, err)
	_, err = harness.New(statusEngine{}, harness.WithPatterns())
	assert.Error(t, err)
	_, err = harness.New(statusEngine{}, harness.WithPatterns("[a-"))
	assert.Error(t, err)
	_, err = harness.New(statusEngine{}, harness.WithLogger(nil))
	assert.Error(t, err)
}

func TestErrorCode(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want string
	}{
		{&harness.ErrReadFile{Path: "a.rs", Err: errors.New("x")}, harness.ErrCodeReadFile},
		{&harness.ErrWalk{Root: "src", Err: errors.New("x")}, harness.ErrCodeWalk},
		{&harness.ErrWriteFile{Op: "create", Path: "a.dot", Err: errors.New("x")}, harness.ErrCodeWriteFile},
		{&harness.ErrDatabase{Op: "begin run", Err: errors.New("x")}, harness.ErrCodeDatabase},
		{&harness.ErrForest{Path: "a.rs", Err: forest.ErrNoDerivation}, harness.ErrCodeForest},
		{context.Canceled, harness.ErrCodeCanceled},
		{context.DeadlineExceeded, harness.ErrCodeDeadline},
		{&harness.ErrDatabase{Op: "record file", Err: context.Canceled}, harness.ErrCodeCanceled},
		{errors.New("boom"), harness.ErrCodeUnknown},
	} {
		assert.Equal(t, tc.want, harness.ErrorCode(tc.err), "%v", tc.err)
	}
	err := &harness.ErrForest{Path: "a.rs", Err: forest.ErrNoDerivation}
	assert.ErrorIs(t, err, forest.ErrNoDerivation)
	assert.Equal(t, "a.rs: malformed forest: no derivation", err.Error())
}

func TestCollectInputs(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"src/a.rs":     "",
		"src/b/c.rs":   "",
		"src/b/d.txt":  "",
		"src/b/e/f.rs": "",
	})

	files, err := harness.CollectInputs(fs, "src", []string{harness.DefaultPattern})
	require.NoError(t, err)
	want := []string{
		filepath.Join("src", "a.rs"),
		filepath.Join("src", "b", "c.rs"),
		filepath.Join("src", "b", "e", "f.rs"),
	}
	assert.Equal(t, want, files)

	files, err = harness.CollectInputs(fs, filepath.Join("src", "a.rs"), []string{harness.DefaultPattern})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("src", "a.rs")}, files)

	files, err = harness.CollectInputs(fs, "src", []string{"*.txt"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

// interruptingEngine cancels the run's context when the first file is
// tokenized, the way an interrupt signal would.
type interruptingEngine struct {
	harness.Engine
	cancel context.CancelFunc
}

func (e interruptingEngine) Tokenize(ctx context.Context, name string, input []byte) (*forester.TokenStream, error) {
	e.cancel()
	return e.Engine.Tokenize(ctx, name, input)
}

func TestDir_InterruptedRunIsRecorded(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"src/a.rs": "a",
		"src/b.rs": "a b",
	})
	s, err := store.NewSQLiteStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := interruptingEngine{Engine: wordsEngine(t), cancel: cancel}
	h := newHarness(t, e, fs, io.Discard, io.Discard, harness.WithRecorder(s))

	_, err = h.Dir(ctx, "src")
	require.ErrorIs(t, err, context.Canceled)

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, harness.ErrCodeCanceled, runs[0].ErrorCode)
	assert.Zero(t, runs[0].Total)
}
