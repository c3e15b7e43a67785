package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Release is the latest-release document served by the release endpoint.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable binary attached to a release. Asset names
// embed the platform target triple.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

func (u *Updater) fetchLatest(ctx context.Context) (Release, error) {
	var release Release

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.Endpoint, nil)
	if err != nil {
		return release, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", "optipix/"+u.Current.String())
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := u.Client.Do(req)
	if err != nil {
		return release, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return release, fmt.Errorf("%w: release endpoint returned %s", ErrNetwork, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return release, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if release.TagName == "" {
		return release, fmt.Errorf("%w: release has no tag name", ErrParse)
	}
	return release, nil
}
