package publish

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"resty.dev/v3"

	"github.com/Iron-Ham/shipyard/internal/workspace"
)

// RegistryPublisher uploads packages as gzipped tarballs to an HTTP
// registry. Each package lands at PUT /packages/{name}/{version}.
type RegistryPublisher struct {
	client *resty.Client
}

var _ Publisher = (*RegistryPublisher)(nil)

// RegistryOptions configures a RegistryPublisher.
type RegistryOptions struct {
	// BaseURL is the registry root, e.g. "https://registry.example.com"
	BaseURL string
	// Token, when non-empty, is sent as a bearer token
	Token string
	// Timeout bounds each upload including the request body transfer
	Timeout time.Duration
}

// NewRegistryPublisher creates a RegistryPublisher for opts.
func NewRegistryPublisher(opts RegistryOptions) (*RegistryPublisher, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid registry URL %q", opts.BaseURL)
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("User-Agent", "shipyard")
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &RegistryPublisher{client: client}, nil
}

// Publish packs the package directory and uploads it.
func (r *RegistryPublisher) Publish(ctx context.Context, pkg *workspace.Package) error {
	archive, err := packDir(pkg.Dir)
	if err != nil {
		return fmt.Errorf("packing %s: %w", pkg.Name(), err)
	}

	res, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/gzip").
		SetBody(archive).
		Put(fmt.Sprintf("/packages/%s/%s", url.PathEscape(pkg.Name()), url.PathEscape(pkg.Manifest.Version)))
	if err != nil {
		// Transport errors wrap the context error on cancellation;
		// surface that directly so the run stops instead of retrying.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("uploading %s: %w", pkg.Name(), err)
	}
	if res.IsError() {
		return fmt.Errorf("registry rejected %s@%s: %s", pkg.Name(), pkg.Manifest.Version, res.Status())
	}
	return nil
}

// Close releases the underlying HTTP client.
func (r *RegistryPublisher) Close() error {
	return r.client.Close()
}

// packDir builds a deterministic gzipped tarball of dir. VCS and shipyard
// bookkeeping directories are excluded.
func packDir(dir string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() && (name == ".git" || name == ".shipyard" || name == "node_modules") {
			return filepath.SkipDir
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr := &tar.Header{
			Name: filepath.ToSlash(rel),
			Mode: int64(info.Mode().Perm()),
			Size: info.Size(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, f)
		f.Close()
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
