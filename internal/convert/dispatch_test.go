// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/breeze-gpx/pkg/types"
)

// recordingConverter implements FileConverter and records every call.
type recordingConverter struct {
	calls  []string
	errors map[string]error
}

func (r *recordingConverter) ConvertFile(index int, name string) (types.ConversionStatus, error) {
	r.calls = append(r.calls, name)
	if err, ok := r.errors[name]; ok {
		return types.ConversionFailed, err
	}
	return types.ConversionDone, nil
}

func TestDispatcher_FiltersBySuffix(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"a.geojson", "b.txt", "c.json"} {
		writeFile(t, fs, filepath.Join(inDir, name), "{}")
	}

	conv := &recordingConverter{}
	var log bytes.Buffer
	d := NewDispatcher(testConfig(), fs, conv, zerolog.New(&log))

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a.geojson"}, conv.calls)
	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 2, result.Ignored)
	assert.Equal(t, 3, result.Total())
	assert.Equal(t, 2, strings.Count(log.String(), `"message":"ignoring"`))
	assert.Contains(t, log.String(), `"message":"finished"`)
}

func TestDispatcher_JSONSuffix(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"a.geojson", "b.txt", "c.json"} {
		writeFile(t, fs, filepath.Join(inDir, name), "{}")
	}

	cfg := testConfig()
	cfg.Suffix = types.SuffixJSON
	conv := &recordingConverter{}
	d := NewDispatcher(cfg, fs, conv, zerolog.Nop())

	_, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c.json"}, conv.calls)
}

func TestDispatcher_IgnoresDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(filepath.Join(inDir, "nested.geojson"), 0o755))
	writeFile(t, fs, filepath.Join(inDir, "x.geojson"), "{}")

	conv := &recordingConverter{}
	d := NewDispatcher(testConfig(), fs, conv, zerolog.Nop())

	result, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"x.geojson"}, conv.calls)
	assert.Equal(t, 1, result.Ignored)
}

func TestDispatcher_ListingOrderAndErrorsContinue(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"c.geojson", "a.geojson", "b.geojson"} {
		writeFile(t, fs, filepath.Join(inDir, name), "{}")
	}

	conv := &recordingConverter{errors: map[string]error{"a.geojson": errors.New("boom")}}
	var log bytes.Buffer
	d := NewDispatcher(testConfig(), fs, conv, zerolog.New(&log))

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a.geojson", "b.geojson", "c.geojson"}, conv.calls)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Converted)
	assert.True(t, result.HasFailures())
	assert.Contains(t, log.String(), `"file":"a.geojson"`)
	assert.Contains(t, log.String(), `"error":"boom"`)
}

func TestDispatcher_ListingFailureIsFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	conv := &recordingConverter{}
	d := NewDispatcher(testConfig(), fs, conv, zerolog.Nop())

	_, err := d.Run(context.Background())
	require.ErrorIs(t, err, ErrIO)
	assert.Empty(t, conv.calls)
}

func TestDispatcher_Cancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(inDir, "a.geojson"), "{}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := &recordingConverter{}
	d := NewDispatcher(testConfig(), fs, conv, zerolog.Nop())

	_, err := d.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, conv.calls)
}

func TestDispatcher_FailureIsolation(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(inDir, "1.geojson"), traceJSON("1451606400.0", "1451606401.0"))
	writeFile(t, fs, filepath.Join(inDir, "2.geojson"), `{"type": "FeatureCollection", "features": [}`)
	writeFile(t, fs, filepath.Join(inDir, "3.geojson"), traceJSON("1451606500.0"))

	cfg := testConfig()
	d := NewDispatcher(cfg, fs, New(cfg, fs, zerolog.Nop()), zerolog.Nop())

	result, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Converted: 2, Failed: 1}, result)

	for _, name := range []string{"1.gpx", "3.gpx"} {
		data, err := afero.ReadFile(fs, filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "<trkpt ")
	}
	exists, err := afero.Exists(fs, filepath.Join(outDir, "2.gpx"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDispatcher_Idempotent(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, filepath.Join(inDir, "a.geojson"), traceJSON("1451606400.0", "1451606401.0"))
	writeFile(t, base, filepath.Join(inDir, "b.geojson"), traceJSON("1451606402.0"))
	writeFile(t, base, filepath.Join(inDir, "notes.txt"), "ignored")

	fs := newCountingFs(base)
	cfg := testConfig()
	run := func() BatchResult {
		d := NewDispatcher(cfg, fs, New(cfg, fs, zerolog.Nop()), zerolog.Nop())
		result, err := d.Run(context.Background())
		require.NoError(t, err)
		return result
	}

	first := run()
	assert.Equal(t, BatchResult{Converted: 2, Ignored: 1}, first)
	snapshot := readTree(t, base, outDir)
	writesAfterFirst := fs.writes

	second := run()
	assert.Equal(t, BatchResult{Skipped: 2, Ignored: 1}, second)
	assert.Equal(t, writesAfterFirst, fs.writes, "second run must not write")
	assert.Equal(t, snapshot, readTree(t, base, outDir))
}

// readTree returns file name to content for every file in dir.
func readTree(t *testing.T, fs afero.Fs, dir string) map[string]string {
	t.Helper()
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := afero.ReadFile(fs, filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = string(data)
	}
	return out
}
