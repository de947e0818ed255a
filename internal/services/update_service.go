// internal/services/update_service.go
package services

import (
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	"github.com/skunkglobal/suite-server/internal/cache"
	"github.com/skunkglobal/suite-server/internal/models"
	"github.com/skunkglobal/suite-server/internal/skunkapi"
)

// UpdateAPI is the remote update-check surface.
type UpdateAPI interface {
	CheckUpdate(req skunkapi.UpdateCheckRequest) (*skunkapi.UpdateInfo, error)
}

// LicenseSource is what the resolver needs from the license registry: the
// stored key for a product and whether the product is licensed.
type LicenseSource interface {
	GetLicense(product string) *models.License
	IsPro(product string) bool
}

// RegisteredPlugin is one plugin the resolver tracks. Registered once at
// startup, never mutated afterwards.
type RegisteredPlugin struct {
	Slug       string `json:"slug"`
	Basename   string `json:"basename"`
	Version    string `json:"version"`
	ProductKey string `json:"product_key"`
}

// UpdateTransient mirrors the host's pending-updates structure, keyed by
// plugin basename. Entries for plugins the resolver does not manage are
// preserved untouched.
type UpdateTransient struct {
	Response    map[string]*UpdateDescriptor `json:"response"`
	NoUpdate    map[string]*NoUpdateEntry    `json:"no_update"`
	LastChecked int64                        `json:"last_checked,omitempty"`
}

// UpdateDescriptor is the "update available" entry handed to the host's
// installer.
type UpdateDescriptor struct {
	Slug          string            `json:"slug"`
	Plugin        string            `json:"plugin"`
	NewVersion    string            `json:"new_version"`
	URL           string            `json:"url"`
	Package       string            `json:"package"`
	Tested        string            `json:"tested,omitempty"`
	Requires      string            `json:"requires,omitempty"`
	RequiresPHP   string            `json:"requires_php,omitempty"`
	UpgradeNotice string            `json:"upgrade_notice,omitempty"`
	Icons         map[string]string `json:"icons,omitempty"`
}

type NoUpdateEntry struct {
	Slug       string `json:"slug"`
	Plugin     string `json:"plugin"`
	NewVersion string `json:"new_version"`
}

// PluginDetails is the extended info descriptor for the host's plugin
// details view. Every optional field carries a default.
type PluginDetails struct {
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Version     string            `json:"version"`
	Author      string            `json:"author"`
	Homepage    string            `json:"homepage"`
	Requires    string            `json:"requires"`
	Tested      string            `json:"tested"`
	RequiresPHP string            `json:"requires_php"`
	LastUpdated string            `json:"last_updated"`
	Sections    map[string]string `json:"sections"`
	Banners     map[string]string `json:"banners"`
	Icons       map[string]string `json:"icons"`
}

// UpgradeEvent is the host's upgrade-completed notification.
type UpgradeEvent struct {
	Action  string   `json:"action"`
	Type    string   `json:"type"`
	Plugins []string `json:"plugins"`
}

const suiteHomepage = "https://skunkglobal.com"

// UpdateService resolves update metadata for every registered plugin,
// cache-first against the update API, and gates package URLs on licensing.
type UpdateService struct {
	api        UpdateAPI
	licenses   LicenseSource
	cache      *cache.Store
	siteURL    string
	pluginsDir string

	mu      sync.RWMutex
	plugins map[string]RegisteredPlugin

	// debounce delay for the post-upgrade re-check
	recheckDelay time.Duration
}

func NewUpdateService(api UpdateAPI, licenses LicenseSource, cacheStore *cache.Store, siteURL, pluginsDir string) *UpdateService {
	return &UpdateService{
		api:          api,
		licenses:     licenses,
		cache:        cacheStore,
		siteURL:      siteURL,
		pluginsDir:   pluginsDir,
		plugins:      make(map[string]RegisteredPlugin),
		recheckDelay: 5 * time.Second,
	}
}

// Register adds a plugin to the registry and, when its paid companion is
// physically installed, registers that too under the same product.
func (s *UpdateService) Register(slug, version, productKey string, companion func(proSlug string) (string, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plugins[slug] = RegisteredPlugin{
		Slug:       slug,
		Basename:   slug + "/" + slug + ".php",
		Version:    version,
		ProductKey: productKey,
	}

	proSlug, ok := models.ProSlugByProduct[productKey]
	if !ok || companion == nil {
		return
	}
	if proVersion, present := companion(proSlug); present {
		s.plugins[proSlug] = RegisteredPlugin{
			Slug:       proSlug,
			Basename:   proSlug + "/" + proSlug + ".php",
			Version:    proVersion,
			ProductKey: productKey,
		}
	}
}

// Registered returns the tracked plugins in slug order.
func (s *UpdateService) Registered() []RegisteredPlugin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slugs := make([]string, 0, len(s.plugins))
	for slug := range s.plugins {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	plugins := make([]RegisteredPlugin, 0, len(slugs))
	for _, slug := range slugs {
		plugins = append(plugins, s.plugins[slug])
	}
	return plugins
}

func (s *UpdateService) lookup(slug string) (RegisteredPlugin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plugin, ok := s.plugins[slug]
	return plugin, ok
}

// CheckUpdates resolves update info for every registered plugin and folds it
// into the host transient, preserving entries it does not own.
func (s *UpdateService) CheckUpdates(transient *UpdateTransient, force bool) *UpdateTransient {
	if transient == nil {
		transient = &UpdateTransient{}
	}
	if transient.Response == nil {
		transient.Response = make(map[string]*UpdateDescriptor)
	}
	if transient.NoUpdate == nil {
		transient.NoUpdate = make(map[string]*NoUpdateEntry)
	}

	for _, plugin := range s.Registered() {
		info := s.updateInfo(plugin, force)
		if info == nil || info.NewVersion == "" {
			continue
		}

		basename := plugin.Basename

		if versionLess(plugin.Version, info.NewVersion) {
			transient.Response[basename] = s.buildDescriptor(plugin, info)
			delete(transient.NoUpdate, basename)
		} else {
			delete(transient.Response, basename)
			transient.NoUpdate[basename] = &NoUpdateEntry{
				Slug:       plugin.Slug,
				Plugin:     basename,
				NewVersion: plugin.Version,
			}
		}
	}

	transient.LastChecked = time.Now().Unix()
	return transient
}

// PluginInfo builds the extended details descriptor for a slug the resolver
// recognizes. It always performs a fresh remote call, bypassing the update
// cache. ok=false means the caller should pass its input through unchanged.
func (s *UpdateService) PluginInfo(slug string) (*PluginDetails, bool) {
	plugin, registered := s.lookup(slug)
	if !registered {
		return nil, false
	}

	info := s.fetch(plugin)
	if info == nil {
		return nil, false
	}

	details := &PluginDetails{
		Name:        plugin.Slug,
		Slug:        plugin.Slug,
		Version:     plugin.Version,
		Author:      "Skunk Global",
		Homepage:    suiteHomepage,
		Requires:    "6.0",
		Tested:      "6.8.3",
		RequiresPHP: "7.4",
		LastUpdated: time.Now().UTC().Format("2006-01-02"),
		Sections: map[string]string{
			"description": info.Description,
			"changelog":   info.Changelog,
		},
		Banners: map[string]string{},
		Icons:   map[string]string{},
	}

	if info.Name != "" {
		details.Name = info.Name
	}
	if info.NewVersion != "" {
		details.Version = info.NewVersion
	}
	if info.Author != "" {
		details.Author = info.Author
	}
	if info.Homepage != "" {
		details.Homepage = info.Homepage
	}
	if info.Requires != "" {
		details.Requires = info.Requires
	}
	if info.Tested != "" {
		details.Tested = info.Tested
	}
	if info.RequiresPHP != "" {
		details.RequiresPHP = info.RequiresPHP
	}
	if info.LastUpdated != "" {
		details.LastUpdated = info.LastUpdated
	}
	if info.Banners != nil {
		details.Banners = info.Banners
	}
	if info.Icons != nil {
		details.Icons = info.Icons
	}

	return details, true
}

// FilterUpdateTransient demotes stale "update available" entries whose
// advertised version is not newer than what is installed. Read-side safety
// net for caches that survived an actual upgrade.
func (s *UpdateService) FilterUpdateTransient(transient *UpdateTransient) *UpdateTransient {
	if transient == nil || transient.Response == nil {
		return transient
	}

	for _, plugin := range s.Registered() {
		basename := plugin.Basename

		entry, ok := transient.Response[basename]
		if !ok {
			continue
		}

		if !versionLess(plugin.Version, entry.NewVersion) {
			delete(transient.Response, basename)
			if transient.NoUpdate == nil {
				transient.NoUpdate = make(map[string]*NoUpdateEntry)
			}
			transient.NoUpdate[basename] = &NoUpdateEntry{
				Slug:       plugin.Slug,
				Plugin:     basename,
				NewVersion: plugin.Version,
			}
		}
	}

	return transient
}

// AfterUpdate reacts to a completed host upgrade: when one of ours was
// updated, purge the update caches and re-check shortly after, so the host's
// own refresh cycle settles first.
func (s *UpdateService) AfterUpdate(event UpgradeEvent) {
	if event.Action != "update" || event.Type != "plugin" {
		return
	}

	for _, plugin := range s.Registered() {
		for _, updated := range event.Plugins {
			if updated != plugin.Basename {
				continue
			}

			s.PurgeUpdateCaches()
			time.AfterFunc(s.recheckDelay, func() {
				s.CheckUpdates(&UpdateTransient{}, true)
			})
			return
		}
	}
}

// PurgeUpdateCaches drops the cached update info of every registered plugin.
func (s *UpdateService) PurgeUpdateCaches() {
	for _, plugin := range s.Registered() {
		s.cache.Delete(cache.Key(plugin.Slug, "update"))
	}
}

// updateInfo resolves update metadata cache-first. A cached entry claiming an
// update with no package URL is corrupt and discarded, forcing a refetch.
func (s *UpdateService) updateInfo(plugin RegisteredPlugin, force bool) *skunkapi.UpdateInfo {
	cacheKey := cache.Key(plugin.Slug, "update")

	if force {
		s.cache.Delete(cacheKey)
	}

	if cached, ok := s.cache.Get(cacheKey); ok {
		if info, ok := cached.(*skunkapi.UpdateInfo); ok {
			if info.UpdateAvailable && info.Package == "" {
				s.cache.Delete(cacheKey)
			} else {
				return info
			}
		}
	}

	info := s.fetch(plugin)
	if info != nil {
		s.cache.Set(cacheKey, info, cache.UpdateInfoTTL)
	}

	return info
}

func (s *UpdateService) fetch(plugin RegisteredPlugin) *skunkapi.UpdateInfo {
	licenseKey := ""
	if license := s.licenses.GetLicense(plugin.ProductKey); license != nil {
		licenseKey = license.Key
	}

	info, err := s.api.CheckUpdate(skunkapi.UpdateCheckRequest{
		PluginSlug:     plugin.Slug,
		CurrentVersion: plugin.Version,
		SiteURL:        s.siteURL,
		LicenseKey:     licenseKey,
	})
	if err != nil {
		logrus.WithError(err).WithField("slug", plugin.Slug).Debug("Update check failed")
		return nil
	}

	return info
}

// buildDescriptor copies the remote metadata into an installer entry. The
// package URL is withheld for paid companions of unlicensed products; when
// delivered, the license key rides along as a query parameter.
func (s *UpdateService) buildDescriptor(plugin RegisteredPlugin, info *skunkapi.UpdateInfo) *UpdateDescriptor {
	pkg := info.Package

	if models.IsProSlug(plugin.Slug) && !s.licenses.IsPro(plugin.ProductKey) {
		pkg = "" // No download without valid license
	}

	if pkg != "" {
		if license := s.licenses.GetLicense(plugin.ProductKey); license != nil && license.Key != "" {
			pkg = addQueryArg(pkg, "license_key", license.Key)
		}
	}

	descriptor := &UpdateDescriptor{
		Slug:          plugin.Slug,
		Plugin:        plugin.Basename,
		NewVersion:    info.NewVersion,
		URL:           suiteHomepage,
		Package:       pkg,
		Tested:        info.Tested,
		Requires:      info.Requires,
		RequiresPHP:   info.RequiresPHP,
		UpgradeNotice: info.UpgradeNotice,
		Icons:         info.Icons,
	}
	if info.URL != "" {
		descriptor.URL = info.URL
	}

	return descriptor
}

func addQueryArg(rawURL, name, value string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	query.Set(name, value)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// versionLess applies semantic version precedence. Unparsable versions never
// trigger an update.
func versionLess(current, remote string) bool {
	currentVersion, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	remoteVersion, err := semver.NewVersion(remote)
	if err != nil {
		return false
	}
	return currentVersion.LessThan(remoteVersion)
}
