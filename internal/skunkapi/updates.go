// internal/skunkapi/updates.go
package skunkapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// UpdateCheckRequest is the payload sent to the plugin update API.
type UpdateCheckRequest struct {
	PluginSlug     string `json:"plugin_slug"`
	CurrentVersion string `json:"current_version"`
	SiteURL        string `json:"site_url"`
	LicenseKey     string `json:"license_key"`
}

// UpdateInfo is the update metadata the API returns for one plugin. A nil
// UpdateInfo means "no update known", never an error the caller must handle.
type UpdateInfo struct {
	Name            string            `json:"name,omitempty"`
	NewVersion      string            `json:"new_version,omitempty"`
	Package         string            `json:"package,omitempty"`
	URL             string            `json:"url,omitempty"`
	Author          string            `json:"author,omitempty"`
	Homepage        string            `json:"homepage,omitempty"`
	Requires        string            `json:"requires,omitempty"`
	Tested          string            `json:"tested,omitempty"`
	RequiresPHP     string            `json:"requires_php,omitempty"`
	UpgradeNotice   string            `json:"upgrade_notice,omitempty"`
	Description     string            `json:"description,omitempty"`
	Changelog       string            `json:"changelog,omitempty"`
	LastUpdated     string            `json:"last_updated,omitempty"`
	UpdateAvailable bool              `json:"update_available,omitempty"`
	Banners         map[string]string `json:"banners,omitempty"`
	Icons           map[string]string `json:"icons,omitempty"`
}

// CheckUpdate asks the update API about one plugin. Transport failures and
// undecodable bodies yield an error; callers treat that as "no update known".
func (c *Client) CheckUpdate(req UpdateCheckRequest) (*UpdateInfo, error) {
	body, _ := json.Marshal(req)

	httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/plugin-updates/check", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var info UpdateInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("undecodable update response: %w", err)
	}

	return &info, nil
}
