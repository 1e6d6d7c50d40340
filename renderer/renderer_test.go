// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/mdhender/forester/model"
	"github.com/mdhender/forester/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newRenderer(t *testing.T) *renderer.Renderer {
	t.Helper()
	r, err := renderer.New(renderer.WithNow(func() time.Time { return now }))
	require.NoError(t, err)
	return r
}

func TestRuns(t *testing.T) {
	runs := []*model.Run{
		{ID: 3, Root: "src", Grammar: "builtin", StartedAt: now.Add(-time.Minute), ErrorCode: "WALK"},
		{ID: 2, Root: "src", Grammar: "builtin", StartedAt: now.Add(-2 * time.Hour)},
		{
			ID: 1, Root: "src", Grammar: "builtin",
			StartedAt: now.Add(-3 * time.Hour), FinishedAt: now.Add(-3*time.Hour + 1500*time.Millisecond),
			Total: 1200, Unambiguous: 900, Ambiguous: 100, Partial: 100, Failed: 100,
		},
	}
	var buf bytes.Buffer
	require.NoError(t, newRenderer(t).Runs(&buf, runs))
	out := buf.String()
	assert.Contains(t, out, "WALK")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "900 (75.0%)")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "3 runs")
}

func TestResults(t *testing.T) {
	results := []*model.FileResult{
		{Path: "src/a.rs", Category: model.CategoryUnambiguous, Bytes: 2048, Tokens: 12345, Elapsed: 1500 * time.Microsecond},
		{Path: "src/b.rs", Category: model.CategoryFailed, Bytes: 10},
	}
	var buf bytes.Buffer
	require.NoError(t, newRenderer(t).Results(&buf, results))
	out := buf.String()
	assert.Contains(t, out, "src/a.rs")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "1.5ms")
	assert.Contains(t, out, "2 files")
}

func TestChanges(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(t)
	require.NoError(t, r.Changes(&buf, nil))
	assert.Equal(t, "no changes\n", buf.String())

	buf.Reset()
	changes := []*model.Change{
		{Path: "src/a.rs", From: model.CategoryFailed, To: model.CategoryUnambiguous, Modified: true},
		{Path: "src/new.rs", To: model.CategoryPartial},
	}
	require.NoError(t, r.Changes(&buf, changes))
	out := buf.String()
	assert.Contains(t, out, "src/new.rs")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "-")
	assert.Contains(t, out, "2 changed")
}

func TestWithNow(t *testing.T) {
	_, err := renderer.New(renderer.WithNow(nil))
	assert.Error(t, err)
}
