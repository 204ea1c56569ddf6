// Package updater checks GitHub for a newer lifetest release and replaces the
// running binary with it.
//
// Releases follow the goreleaser naming scheme
// lifetest_<version>_<os>_<arch>.tar.gz (.zip on Windows). The new binary is
// written next to the current one and renamed over it.
package updater

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

const (
	repository = "HendryAvila/lifetest"
	binaryName = "lifetest"

	// maxBinarySize bounds what is read out of a release archive.
	maxBinarySize = 200 << 20
)

// Overridden in tests.
var (
	releaseEndpoint = "https://api.github.com/repos/" + repository + "/releases/latest"
	httpClient      = &http.Client{Timeout: 30 * time.Second}
	goos, goarch    = runtime.GOOS, runtime.GOARCH
)

// ErrUpToDate is returned by SelfUpdate when there is nothing newer.
var ErrUpToDate = errors.New("already at the latest version")

// Release is the part of the GitHub release payload we use.
type Release struct {
	TagName string  `json:"tag_name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable release file.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Check compares the running version with the latest release.
type Check struct {
	Current   string
	Latest    string
	Available bool
	URL       string
}

// Latest fetches the latest release description.
func Latest(ctx context.Context, userAgent string) (Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseEndpoint, nil)
	if err != nil {
		return Release{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("checking latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}
	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return Release{}, fmt.Errorf("parsing release info: %w", err)
	}
	return rel, nil
}

// CheckVersion reports whether a release newer than current exists.
func CheckVersion(ctx context.Context, current string) (Check, error) {
	c := Check{Current: normalizeVersion(current)}
	rel, err := Latest(ctx, binaryName+"/"+current)
	if err != nil {
		return c, err
	}
	c.Latest = normalizeVersion(rel.TagName)
	c.URL = rel.HTMLURL
	c.Available = isNewer(c.Current, c.Latest)
	return c, nil
}

// SelfUpdate replaces the binary at execPath with the latest release and
// returns the version installed.
func SelfUpdate(ctx context.Context, current, execPath string) (string, error) {
	rel, err := Latest(ctx, binaryName+"/"+current)
	if err != nil {
		return "", err
	}
	latest := normalizeVersion(rel.TagName)
	if !isNewer(normalizeVersion(current), latest) {
		return "", fmt.Errorf("%w (%s)", ErrUpToDate, normalizeVersion(current))
	}

	name := assetName(latest)
	var url string
	for _, a := range rel.Assets {
		if a.Name == name {
			url = a.BrowserDownloadURL
			break
		}
	}
	if url == "" {
		return "", fmt.Errorf("no release asset %s for %s/%s", name, goos, goarch)
	}

	archive, err := download(ctx, url)
	if err != nil {
		return "", err
	}
	bin, err := extractBinary(archive, name)
	if err != nil {
		return "", fmt.Errorf("extracting binary: %w", err)
	}
	if err := replace(execPath, bin); err != nil {
		return "", err
	}
	return latest, nil
}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBinarySize))
}

// replace writes bin beside execPath and renames it over the original. A
// running executable cannot be overwritten on Windows, so it is moved aside
// first.
func replace(execPath string, bin []byte) error {
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}
	tmp := execPath + ".new"
	if err := os.WriteFile(tmp, bin, 0o755); err != nil {
		return fmt.Errorf("writing new binary: %w", err)
	}
	if goos == "windows" {
		old := execPath + ".old"
		_ = os.Remove(old)
		if err := os.Rename(execPath, old); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("moving current binary aside: %w", err)
		}
	}
	if err := os.Rename(tmp, execPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing binary: %w", err)
	}
	return nil
}

func extractBinary(archive []byte, name string) ([]byte, error) {
	if strings.HasSuffix(name, ".zip") {
		return extractFromZip(archive)
	}
	return extractFromTarGz(archive)
}

func isBinary(path string) bool {
	base := filepath.Base(path)
	return base == binaryName || base == binaryName+".exe"
}

func extractFromTarGz(archive []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, fmt.Errorf("opening gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg && isBinary(hdr.Name) {
			return io.ReadAll(io.LimitReader(tr, maxBinarySize))
		}
	}
	return nil, fmt.Errorf("%s binary not found in archive", binaryName)
}

func extractFromZip(archive []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isBinary(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxBinarySize))
		_ = rc.Close()
		return data, err
	}
	return nil, fmt.Errorf("%s binary not found in archive", binaryName)
}

func assetName(version string) string {
	ext := "tar.gz"
	if goos == "windows" {
		ext = "zip"
	}
	return fmt.Sprintf("%s_%s_%s_%s.%s", binaryName, version, goos, goarch, ext)
}

func normalizeVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}

// isNewer compares dotted versions numerically. Development builds never
// update.
func isNewer(current, latest string) bool {
	if current == "" || latest == "" || current == "dev" {
		return false
	}
	c, l := versionParts(current), versionParts(latest)
	for i := range c {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

// versionParts parses major.minor.patch, reading the leading digits of each
// part so "1.2.3-rc1" is 1.2.3.
func versionParts(v string) [3]int {
	var out [3]int
	for i, p := range strings.SplitN(v, ".", 3) {
		end := 0
		for end < len(p) && p[end] >= '0' && p[end] <= '9' {
			end++
		}
		out[i], _ = strconv.Atoi(p[:end])
	}
	return out
}
