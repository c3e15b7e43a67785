// Package updater replaces the running executable with the latest
// published release binary. The flow is check, compare, download, verify,
// swap; a failure at any step leaves the installed binary untouched.
package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// DefaultEndpoint serves the latest-release document.
const DefaultEndpoint = "https://api.github.com/repos/optipix/optipix/releases/latest"

var (
	ErrNetwork         = errors.New("update check failed")
	ErrParse           = errors.New("malformed release response")
	ErrNoMatchingAsset = errors.New("no release asset for this platform")
	ErrCorruptArtifact = errors.New("downloaded artifact is corrupt")
	ErrSwap            = errors.New("executable swap failed")
)

// Updater holds the pieces of one update invocation. Fields are exported
// so tests can point it at a local endpoint and a scratch executable.
type Updater struct {
	Client   *http.Client
	Endpoint string
	Current  *semver.Version
	ExecPath string
	Out      io.Writer
}

// New builds an Updater for the running binary and embedded version.
func New(currentVersion string) (*Updater, error) {
	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		return nil, fmt.Errorf("current version %q: %w", currentVersion, err)
	}
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate current executable: %w", err)
	}
	return &Updater{
		Client:   &http.Client{Timeout: 5 * time.Minute},
		Endpoint: DefaultEndpoint,
		Current:  current,
		ExecPath: execPath,
		Out:      os.Stdout,
	}, nil
}

// Run performs the whole update. It returns nil both after a successful
// swap and when the installed version is already current.
func (u *Updater) Run(ctx context.Context) error {
	fmt.Fprintf(u.Out, "Checking for updates (current version v%s)...\n", u.Current)

	release, err := u.fetchLatest(ctx)
	if err != nil {
		return err
	}

	remote, err := semver.NewVersion(release.TagName)
	if err != nil {
		return fmt.Errorf("%w: release tag %q: %v", ErrParse, release.TagName, err)
	}
	fmt.Fprintf(u.Out, "Latest release: %s\n", release.TagName)

	if !remote.GreaterThan(u.Current) {
		fmt.Fprintln(u.Out, "Already up to date.")
		return nil
	}

	triple, err := targetTriple()
	if err != nil {
		return err
	}
	asset, err := selectAsset(release.Assets, triple)
	if err != nil {
		return err
	}

	fmt.Fprintf(u.Out, "Downloading %s...\n", asset.Name)
	artifact, err := u.download(ctx, asset)
	if err != nil {
		return err
	}
	defer os.Remove(artifact)

	if err := verifyArtifact(artifact); err != nil {
		return err
	}

	if err := replaceExecutable(artifact, u.ExecPath); err != nil {
		return err
	}

	fmt.Fprintf(u.Out, "Updated to %s.\n", release.TagName)
	return nil
}

// selectAsset picks the asset whose name embeds the platform target
// triple, by exact substring match.
func selectAsset(assets []Asset, triple string) (Asset, error) {
	for _, asset := range assets {
		if strings.Contains(asset.Name, triple) {
			return asset, nil
		}
	}

	names := make([]string, 0, len(assets))
	for _, asset := range assets {
		names = append(names, asset.Name)
	}
	return Asset{}, fmt.Errorf("%w %s (available: %s)", ErrNoMatchingAsset, triple, strings.Join(names, ", "))
}

// download writes the asset to a temp file next to the current
// executable, so the later rename stays on one filesystem.
func (u *Updater) download(ctx context.Context, asset Asset) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.BrowserDownloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	resp, err := u.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: asset download returned %s", ErrNetwork, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(u.ExecPath), "optipix-update-*")
	if err != nil {
		return "", err
	}

	_, copyErr := io.Copy(tmp, resp.Body)
	if err := tmp.Close(); copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrNetwork, copyErr)
	}

	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// verifyArtifact rejects empty or non-executable downloads before they
// get anywhere near the installed binary.
func verifyArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: downloaded file is empty", ErrCorruptArtifact)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: downloaded file is not executable", ErrCorruptArtifact)
	}
	return nil
}
