package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitesketch/internal/editor"
	"sitesketch/internal/geo"
	"sitesketch/internal/persist"
	"sitesketch/internal/prefs"
	"sitesketch/internal/pricing"
	"sitesketch/internal/sketch"
	"sitesketch/internal/store"
)

// seed stores one sketch in a file store and points the CLI at it.
func seed(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SKETCH_STORE", "file")
	t.Setenv("SKETCH_FILE_DIR", dir)
	t.Setenv("MINIO_ENDPOINT", "")
	t.Setenv("PRICING_CATALOG", "")
	t.Setenv("GST_RATE", "0.05")
	t.Setenv("HISTORY_LIMIT", "10")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	docs, err := store.NewFileStore(dir)
	require.NoError(t, err)
	origin := geo.LatLng{Lat: 53.5461, Lng: -113.4938}
	line, err := sketch.Build(sketch.KindLine, []geo.LatLng{origin, geo.Offset(origin, 10, 90)}, sketch.DefaultStyle())
	require.NoError(t, err)
	line.ServiceID = "fence"

	res, err := persist.NewBridge(docs).Save(context.Background(), persist.Meta{Title: "Yard"},
		editor.Snapshot{Shapes: []*sketch.Shape{line}})
	require.NoError(t, err)
	return res.Document.ID, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	outputJSON, estimateCatalog, estimateSave, exportOutput = false, "", false, ""
	editResize, editService, editDepth, editDelete, editOverlay, editCatalog = nil, nil, nil, nil, "", ""
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--env", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMeasure(t *testing.T) {
	id, _ := seed(t)
	out, err := run(t, "measure", id)
	require.NoError(t, err)
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "32.8 ft")
	assert.Contains(t, out, "fence")

	out, err = run(t, "measure", "--json", id)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 1)
}

func TestMeasureUnknownSketch(t *testing.T) {
	seed(t)
	_, err := run(t, "measure", "nope")
	assert.ErrorIs(t, err, persist.ErrNotFound)
}

func TestEstimateWithCatalogAndSave(t *testing.T) {
	id, dir := seed(t)
	catalog := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte("services:\n  - id: fence\n    name: Fence\n    type: length\n    defaultPrice: 10\n"), 0o644))

	out, err := run(t, "estimate", "--catalog", catalog, "--save", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Fence")
	assert.Contains(t, out, "Total")

	docs, err := store.NewFileStore(dir)
	require.NoError(t, err)
	doc, err := docs.LoadSketch(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, doc.Estimate)
	assert.InDelta(t, 328.08, doc.Estimate.Subtotal, 0.5)
}

func TestEstimateUnknownServiceStillPrints(t *testing.T) {
	id, _ := seed(t)
	out, err := run(t, "estimate", "--json", id)
	require.NoError(t, err)
	var est pricing.Estimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.Empty(t, est.Items)
	assert.Equal(t, 0.05, est.GSTRate)
}

func TestExportToFile(t *testing.T) {
	id, _ := seed(t)
	path := filepath.Join(t.TempDir(), "site.geojson")
	_, err := run(t, "export", "-o", path, id)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var fc map[string]any
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
	assert.Equal(t, "Yard", fc["title"])
}

func TestListAndMigrate(t *testing.T) {
	id, _ := seed(t)
	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "has no schema")
}

func TestMigrateSQLite(t *testing.T) {
	seed(t)
	t.Setenv("SKETCH_STORE", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "s.db"))
	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite store migrated")

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sketchctl 0.1.0")
}

func loadDoc(t *testing.T, dir, id string) *persist.Document {
	t.Helper()
	docs, err := store.NewFileStore(dir)
	require.NoError(t, err)
	doc, err := docs.LoadSketch(context.Background(), id)
	require.NoError(t, err)
	return doc
}

func TestEditResizeAndService(t *testing.T) {
	id, dir := seed(t)
	shapeID := loadDoc(t, dir, id).Shapes[0].ID

	out, err := run(t, "edit", "--resize", shapeID+"=100", "--service", shapeID+"=gate:12.5", id)
	require.NoError(t, err)
	assert.Contains(t, out, "saved "+id+": 1 shapes")

	doc := loadDoc(t, dir, id)
	require.Len(t, doc.Shapes, 1)
	assert.InDelta(t, 100, doc.Shapes[0].Measurement, 0.01)
	assert.Equal(t, "gate", doc.Shapes[0].ServiceID)
	assert.Equal(t, 12.5, doc.Shapes[0].UnitPrice)
	assert.Equal(t, "Yard", doc.Title)
	require.NotNil(t, doc.Estimate, "a partial estimate is stored")
	assert.Empty(t, doc.Estimate.Items, "gate is not in the catalog")
	assert.Contains(t, out, "estimate total 0.00")

	assert.Equal(t, id, prefs.Load().String(prefs.KeyLastSketchID))
}

func TestEditDeleteAndOverlayWithoutAssets(t *testing.T) {
	id, dir := seed(t)
	shapeID := loadDoc(t, dir, id).Shapes[0].ID

	img := filepath.Join(t.TempDir(), "plan.png")
	f, err := os.Create(img)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 40, 20))))
	require.NoError(t, f.Close())

	_, err = run(t, "edit", "--delete", shapeID, "--overlay", img, id)
	require.NoError(t, err)

	doc := loadDoc(t, dir, id)
	assert.Empty(t, doc.Shapes)
	assert.Nil(t, doc.Overlay, "the overlay is dropped when it cannot be uploaded")
}

func TestEditRejectsBadArguments(t *testing.T) {
	id, _ := seed(t)
	_, err := run(t, "edit", "--resize", "nothing", id)
	assert.ErrorContains(t, err, "expected shape=value")

	_, err = run(t, "edit", "--delete", "missing", id)
	assert.ErrorContains(t, err, "0 of 1 shapes found")
}

func TestEditRejectsInfiniteResize(t *testing.T) {
	id, dir := seed(t)
	shapeID := loadDoc(t, dir, id).Shapes[0].ID

	_, err := run(t, "edit", "--resize", shapeID+"=inf", id)
	assert.ErrorIs(t, err, geo.ErrNotResizable)

	doc := loadDoc(t, dir, id)
	require.Len(t, doc.Shapes, 1)
	assert.InDelta(t, 32.8, doc.Shapes[0].Measurement, 0.1)
}
