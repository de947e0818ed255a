// internal/services/product_service.go
package services

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Product describes one member of the Skunk suite.
type Product struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Color       string   `json:"color"`
	MenuSlug    string   `json:"menu_slug"`
	PluginSlugs []string `json:"plugin_slugs"`
	Landing     string   `json:"landing"`
}

type InstallState string

const (
	StateActive    InstallState = "active"
	StateInstalled InstallState = "installed"
	StateMissing   InstallState = "missing"
)

// ProductState is the detection result for one product.
type ProductState struct {
	State InstallState `json:"state"`
	URL   string       `json:"url"`
}

// PluginManifest is the plugin.json metadata file every Skunk plugin ships in
// its install directory.
type PluginManifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Active  bool   `json:"active"`
}

var catalog = []Product{
	{
		Key:         "crm",
		Name:        "SkunkCRM",
		Description: "Contacts, deals & pipeline",
		Icon:        "users",
		Color:       "#E50914",
		MenuSlug:    "skunkcrm-contacts",
		PluginSlugs: []string{"skunkcrm", "skunkcrm-plugin"},
		Landing:     "https://skunkcrm.com",
	},
	{
		Key:         "forms",
		Name:        "Skunk Forms",
		Description: "Form builder & lead capture",
		Icon:        "forms",
		Color:       "#3B82F6",
		MenuSlug:    "skunkforms",
		PluginSlugs: []string{"skunkforms", "skunkforms-free", "skunkforms-free-plugin"},
		Landing:     "https://skunkforms.com",
	},
	{
		Key:         "pages",
		Name:        "Skunk Pages",
		Description: "Landing page templates",
		Icon:        "pages",
		Color:       "#8B5CF6",
		MenuSlug:    "skunk-pages",
		PluginSlugs: []string{"skunkpages", "skunkpages-free", "skunkpages-free-plugin"},
		Landing:     "https://skunkpages.com",
	},
}

// ProductService resolves the static product catalog and detects each
// product's install state by probing the plugins directory.
type ProductService struct {
	pluginsDir string
}

func NewProductService(pluginsDir string) *ProductService {
	return &ProductService{pluginsDir: pluginsDir}
}

func (s *ProductService) Get(key string) *Product {
	for i := range catalog {
		if catalog[i].Key == key {
			return &catalog[i]
		}
	}
	return nil
}

func (s *ProductService) All() []Product {
	return catalog
}

// Detect reports a product's install state. Installed-but-inactive products
// come with an activation URL, missing products with their landing page.
func (s *ProductService) Detect(key string) ProductState {
	product := s.Get(key)
	if product == nil {
		return ProductState{State: StateMissing, URL: "#"}
	}

	for _, slug := range product.PluginSlugs {
		manifest, err := s.ReadManifest(slug)
		if err != nil {
			continue
		}
		if manifest.Active {
			return ProductState{State: StateActive}
		}
		activateURL := "/wp-admin/plugins.php?action=activate&plugin=" + url.QueryEscape(slug)
		return ProductState{State: StateInstalled, URL: activateURL}
	}

	return ProductState{State: StateMissing, URL: product.Landing}
}

func (s *ProductService) IsActive(key string) bool {
	return s.Detect(key).State == StateActive
}

// ActiveMap returns the activity flag for every catalog product.
func (s *ProductService) ActiveMap() map[string]bool {
	states := make(map[string]bool, len(catalog))
	for _, product := range catalog {
		states[product.Key] = s.IsActive(product.Key)
	}
	return states
}

// InstalledPlugin returns the slug and version of the first installed plugin
// backing a product, or ok=false when none is present.
func (s *ProductService) InstalledPlugin(key string) (slug, version string, ok bool) {
	product := s.Get(key)
	if product == nil {
		return "", "", false
	}

	for _, candidate := range product.PluginSlugs {
		manifest, err := s.ReadManifest(candidate)
		if err != nil {
			continue
		}
		return candidate, manifest.Version, true
	}

	return "", "", false
}

// ReadManifest loads the plugin.json of a plugin directory under the
// configured plugins dir.
func (s *ProductService) ReadManifest(slug string) (*PluginManifest, error) {
	// Slugs come from config and the static catalog, not user input, but
	// keep path traversal out anyway
	slug = strings.TrimSpace(filepath.Base(slug))

	data, err := os.ReadFile(filepath.Join(s.pluginsDir, slug, "plugin.json"))
	if err != nil {
		return nil, err
	}

	var manifest PluginManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}

	return &manifest, nil
}
