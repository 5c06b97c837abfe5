// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/breeze-gpx/pkg/types"
)

const (
	inDir  = "/data/geojson"
	outDir = "/data/gpx"
)

// countingFs wraps an afero.Fs and records opens per path and file
// creations.
type countingFs struct {
	afero.Fs
	mu     sync.Mutex
	opens  map[string]int
	writes int
}

func newCountingFs(fs afero.Fs) *countingFs {
	return &countingFs{Fs: fs, opens: make(map[string]int)}
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.mu.Lock()
	c.opens[filepath.Clean(name)]++
	c.mu.Unlock()
	return c.Fs.Open(name)
}

func (c *countingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	c.mu.Lock()
	c.opens[filepath.Clean(name)]++
	if flag&(os.O_CREATE|os.O_WRONLY|os.O_RDWR) != 0 {
		c.writes++
	}
	c.mu.Unlock()
	return c.Fs.OpenFile(name, flag, perm)
}

func (c *countingFs) Create(name string) (afero.File, error) {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Fs.Create(name)
}

// traceJSON returns a one-feature Breeze-style export with one time per
// coordinate.
func traceJSON(times ...string) string {
	coords := make([]string, len(times))
	for i := range times {
		coords[i] = fmt.Sprintf("[-71.1%d, 42.37%d, 5.0]", i, i)
	}
	return fmt.Sprintf(`{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "geometry": {"type": "LineString", "coordinates": [%s]},
    "properties": {
      "userId": "u-1",
      "activityType": "Walking",
      "utcOffset": "-14400",
      "coordinateProperties": {"times": [%s]}
    }
  }]
}`, strings.Join(coords, ", "), strings.Join(times, ", "))
}

func testConfig() types.ConversionConfig {
	return types.ConversionConfig{
		InputDir:  inDir,
		OutputDir: outDir,
		Suffix:    types.SuffixGeoJSON,
	}
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"geojson", "2015-07-06-u1.geojson", "2015-07-06-u1.gpx", false},
		{"json", "trace.json", "trace.gpx", false},
		{"dotted stem", "run.2016.01.geojson", "run.2016.01.gpx", false},
		{"short name", "a.geojson", "a.gpx", false},
		{"directory stripped", "sub/dir/x.geojson", "x.gpx", false},
		{"no extension", "README", "", true},
		{"only extension", ".geojson", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OutputName(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoExtension)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertFile(t *testing.T) {
	tests := []struct {
		name       string
		input      string // empty means the input file is absent
		preExist   bool
		overwrite  bool
		wantStatus types.ConversionStatus
		wantErr    error
		wantLog    string
		wantOutput bool
	}{
		{
			name:       "successful conversion",
			input:      traceJSON("1451606400.0", "1451606401.5"),
			wantStatus: types.ConversionDone,
			wantLog:    `"message":"created"`,
			wantOutput: true,
		},
		{
			name:       "skip existing output",
			input:      traceJSON("1451606400.0"),
			preExist:   true,
			wantStatus: types.ConversionSkipped,
			wantLog:    `"message":"skipped (already exists)"`,
			wantOutput: true,
		},
		{
			name:       "overwrite existing output",
			input:      traceJSON("1451606400.0"),
			preExist:   true,
			overwrite:  true,
			wantStatus: types.ConversionDone,
			wantLog:    `"message":"created"`,
			wantOutput: true,
		},
		{
			name:       "invalid JSON",
			input:      `{"type": "FeatureCollection", "features": [`,
			wantStatus: types.ConversionFailed,
			wantErr:    ErrParse,
		},
		{
			name:       "not a feature collection",
			input:      `{"type": "Topology"}`,
			wantStatus: types.ConversionFailed,
			wantErr:    ErrParse,
		},
		{
			name:       "missing times",
			input:      `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0]]},"properties":{}}]}`,
			wantStatus: types.ConversionFailed,
			wantErr:    ErrMalformedInput,
		},
		{
			name:       "non-numeric time",
			input:      traceJSON(`"later"`),
			wantStatus: types.ConversionFailed,
			wantErr:    ErrMalformedInput,
		},
		{
			name:       "time count mismatch",
			input:      strings.Replace(traceJSON("1.0", "2.0"), "[1.0, 2.0]", "[1.0]", 1),
			wantStatus: types.ConversionFailed,
			wantErr:    ErrMalformedInput,
		},
		{
			name:       "unreadable input",
			wantStatus: types.ConversionFailed,
			wantErr:    ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			inPath := filepath.Join(inDir, "trace.geojson")
			outPath := filepath.Join(outDir, "trace.gpx")
			if tt.input != "" {
				writeFile(t, fs, inPath, tt.input)
			}
			if tt.preExist {
				writeFile(t, fs, outPath, "existing")
			}

			cfg := testConfig()
			cfg.Overwrite = tt.overwrite
			var log bytes.Buffer
			conv := New(cfg, fs, zerolog.New(&log))

			status, err := conv.ConvertFile(0, "trace.geojson")

			assert.Equal(t, tt.wantStatus, status)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, log.String(), tt.wantLog)

			exists, err := afero.Exists(fs, outPath)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutput, exists)
		})
	}
}

func TestConvertFile_Output(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(inDir, "trace.geojson"), traceJSON("1451606400.0", "1451606400.5"))

	conv := New(testConfig(), fs, zerolog.Nop())
	status, err := conv.ConvertFile(3, "trace.geojson")
	require.NoError(t, err)
	require.Equal(t, types.ConversionDone, status)

	data, err := afero.ReadFile(fs, filepath.Join(outDir, "trace.gpx"))
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "<time>2016-01-01T00:00:00.000Z</time>")
	assert.Contains(t, out, "<time>2016-01-01T00:00:00.500Z</time>")
	assert.Contains(t, out, "<type>Walking</type>")
	assert.Contains(t, out, "<name>trace</name>")
	assert.Equal(t, 2, strings.Count(out, "<trkpt "))

	// No temp files are left behind.
	entries, err := afero.ReadDir(fs, outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "trace.gpx", entries[0].Name())
}

func TestConvertFile_LoneFeature(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(inDir, "one.geojson"), `{
  "type": "Feature",
  "geometry": {"type": "LineString", "coordinates": [[1, 2], [3, 4]]},
  "properties": {"coordinateProperties": {"times": [0, 1]}}
}`)

	conv := New(testConfig(), fs, zerolog.Nop())
	status, err := conv.ConvertFile(0, "one.geojson")
	require.NoError(t, err)
	assert.Equal(t, types.ConversionDone, status)

	data, err := afero.ReadFile(fs, filepath.Join(outDir, "one.gpx"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<time>1970-01-01T00:00:01.000Z</time>")
}

func TestConvertFile_SkipDoesNotReadInput(t *testing.T) {
	base := afero.NewMemMapFs()
	inPath := filepath.Join(inDir, "trace.geojson")
	outPath := filepath.Join(outDir, "trace.gpx")
	writeFile(t, base, inPath, traceJSON("1451606400.0"))
	writeFile(t, base, outPath, "existing bytes")

	fs := newCountingFs(base)
	conv := New(testConfig(), fs, zerolog.Nop())

	status, err := conv.ConvertFile(0, "trace.geojson")
	require.NoError(t, err)
	assert.Equal(t, types.ConversionSkipped, status)
	assert.Zero(t, fs.opens[inPath], "input must not be opened")
	assert.Zero(t, fs.writes)

	data, err := afero.ReadFile(base, outPath)
	require.NoError(t, err)
	assert.Equal(t, "existing bytes", string(data))
}

func TestConvertFile_FailureKeepsExistingOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	outPath := filepath.Join(outDir, "trace.gpx")
	writeFile(t, fs, filepath.Join(inDir, "trace.geojson"), "not json")
	writeFile(t, fs, outPath, "previous run")

	cfg := testConfig()
	cfg.Overwrite = true
	conv := New(cfg, fs, zerolog.Nop())

	_, err := conv.ConvertFile(0, "trace.geojson")
	require.ErrorIs(t, err, ErrParse)

	data, err := afero.ReadFile(fs, outPath)
	require.NoError(t, err)
	assert.Equal(t, "previous run", string(data))
}

func TestConvertFile_CustomTimesPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(inDir, "t.json"), `{"type":"FeatureCollection","features":[
  {"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"times":[1451606400]}}
]}`)

	cfg := testConfig()
	cfg.Suffix = types.SuffixJSON
	cfg.TimesPath = "times"
	cfg.Creator = "unit-test"
	conv := New(cfg, fs, zerolog.Nop())

	_, err := conv.ConvertFile(0, "t.json")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, filepath.Join(outDir, "t.gpx"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `creator="unit-test"`)
	assert.Contains(t, string(data), "<time>2016-01-01T00:00:00.000Z</time>")
}
