package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Localize returns a local path for location. Remote files are downloaded
// into dir under their base name; local paths are checked and returned as is.
func Localize(ctx context.Context, f Fetcher, location, dir string) (string, error) {
	if !IsRemote(location) {
		if _, err := os.Stat(location); err != nil {
			return "", eris.Wrapf(err, "fetcher: source %s", location)
		}
		return location, nil
	}
	if f == nil {
		return "", eris.Errorf("fetcher: no downloader for %s", location)
	}

	u, _ := url.Parse(location)
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = strings.ReplaceAll(u.Host, ".", "_")
	}
	dest := filepath.Join(dir, name)

	n, err := f.DownloadToFile(ctx, location, dest)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: download %s", location)
	}
	zap.L().With(zap.String("component", "fetcher")).Info("downloaded source",
		zap.String("url", location),
		zap.String("path", dest),
		zap.Int64("bytes", n),
	)
	return dest, nil
}
