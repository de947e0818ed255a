// internal/services/product_service_test.go
package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, slug string, manifest PluginManifest) {
	t.Helper()
	pluginDir := filepath.Join(dir, slug)
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0o644))
}

func TestCatalog(t *testing.T) {
	service := NewProductService(t.TempDir())

	products := service.All()
	require.Len(t, products, 3)

	crm := service.Get("crm")
	require.NotNil(t, crm)
	assert.Equal(t, "SkunkCRM", crm.Name)
	assert.Equal(t, "https://skunkcrm.com", crm.Landing)

	assert.Nil(t, service.Get("mailer"))
}

func TestDetectActive(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "skunkcrm", PluginManifest{Name: "SkunkCRM", Version: "1.0.0", Active: true})

	service := NewProductService(dir)

	state := service.Detect("crm")
	assert.Equal(t, StateActive, state.State)
	assert.Empty(t, state.URL)
	assert.True(t, service.IsActive("crm"))
}

func TestDetectInstalledInactive(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "skunkforms", PluginManifest{Name: "Skunk Forms", Version: "1.1.0", Active: false})

	service := NewProductService(dir)

	state := service.Detect("forms")
	assert.Equal(t, StateInstalled, state.State)
	assert.Contains(t, state.URL, "action=activate")
	assert.Contains(t, state.URL, "skunkforms")
	assert.False(t, service.IsActive("forms"))
}

func TestDetectMissing(t *testing.T) {
	service := NewProductService(t.TempDir())

	state := service.Detect("pages")
	assert.Equal(t, StateMissing, state.State)
	assert.Equal(t, "https://skunkpages.com", state.URL)
}

func TestDetectUnknownProduct(t *testing.T) {
	service := NewProductService(t.TempDir())

	state := service.Detect("mailer")
	assert.Equal(t, StateMissing, state.State)
	assert.Equal(t, "#", state.URL)
}

func TestDetectAlternateSlug(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "skunkforms-free", PluginManifest{Name: "Skunk Forms", Version: "1.1.0", Active: true})

	service := NewProductService(dir)
	assert.Equal(t, StateActive, service.Detect("forms").State)
}

func TestActiveMap(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "skunkcrm", PluginManifest{Version: "1.0.0", Active: true})

	service := NewProductService(dir)

	states := service.ActiveMap()
	assert.Equal(t, map[string]bool{"crm": true, "forms": false, "pages": false}, states)
}

func TestInstalledPlugin(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "skunkpages", PluginManifest{Version: "3.2.1", Active: false})

	service := NewProductService(dir)

	slug, version, ok := service.InstalledPlugin("pages")
	require.True(t, ok)
	assert.Equal(t, "skunkpages", slug)
	assert.Equal(t, "3.2.1", version)

	_, _, ok = service.InstalledPlugin("crm")
	assert.False(t, ok)
}

func TestReadManifestStripsPath(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "skunkcrm", PluginManifest{Version: "1.0.0"})

	service := NewProductService(dir)

	manifest, err := service.ReadManifest("../../skunkcrm")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", manifest.Version)
}

func TestReadManifestBadJSON(t *testing.T) {
	dir := t.TempDir()
	pluginDir := filepath.Join(dir, "skunkcrm")
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "plugin.json"), []byte("{"), 0o644))

	service := NewProductService(dir)

	_, err := service.ReadManifest("skunkcrm")
	assert.Error(t, err)
}
