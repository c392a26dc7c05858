// Package archive downloads package distribution archives into scoped
// temporary directories.
//
// [Fetcher.Extract] owns the directory it creates: the callback runs with
// the extracted tree in place and the directory is removed before Extract
// returns, on every path. Supported formats are gzip-compressed tar (npm
// tarballs), xz-compressed tar and plain tar; the format is detected from
// the leading bytes of the download.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ulikunitz/xz"

	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations"
)

const (
	// DefaultTimeout bounds one download, extraction included.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxBytes caps the size of a downloaded archive.
	DefaultMaxBytes = 50 << 20

	// LimitArchiveSize is the limit type reported for oversized archives
	// and oversized extracted trees.
	LimitArchiveSize = "archive size"

	// Extracted trees may be this many times larger than the archive.
	expansionFactor = 4
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// Fetcher downloads and extracts archives.
type Fetcher struct {
	client   *integrations.Client
	timeout  time.Duration
	maxBytes int64
	logger   *log.Logger
}

// NewFetcher creates a Fetcher. Zero timeout or maxBytes select the
// defaults; a nil logger discards output.
func NewFetcher(timeout time.Duration, maxBytes int64, logger *log.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	c := integrations.NewClient(nil, "archive:", 0, nil)
	// The wall-clock bound comes from the context.
	c.SetHTTPClient(&http.Client{})
	return &Fetcher{client: c, timeout: timeout, maxBytes: maxBytes, logger: logger}
}

// SetHTTPClient replaces the HTTP client used for downloads.
func (f *Fetcher) SetHTTPClient(h *http.Client) { f.client.SetHTTPClient(h) }

// Extract downloads the archive at url, extracts it into a fresh temporary
// directory and calls fn with that directory. The directory is removed when
// Extract returns.
func (f *Fetcher) Extract(ctx context.Context, url string, fn func(dir string) error) error {
	if err := errors.ValidateURL(url); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	tmp, err := os.MkdirTemp("", "plugable-archive-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "creating temporary directory")
	}
	defer func() {
		if rmErr := os.RemoveAll(tmp); rmErr != nil {
			f.logger.Warn("failed to remove archive directory", "dir", tmp, "err", rmErr)
		}
	}()

	archivePath := filepath.Join(tmp, "archive")
	if err := f.download(ctx, url, archivePath); err != nil {
		return err
	}

	root := filepath.Join(tmp, "root")
	if err := os.Mkdir(root, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "creating extraction directory")
	}
	if err := f.extractFile(ctx, archivePath, root); err != nil {
		return err
	}
	f.logger.Debug("extracted archive", "url", url, "dir", root)

	return fn(root)
}

func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	body, err := f.client.Open(ctx, url)
	if err != nil {
		return f.contextError(ctx, err, url)
	}
	defer body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "creating archive file")
	}
	n, err := io.Copy(out, io.LimitReader(body, f.maxBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return f.contextError(ctx, err, url)
	}
	if n > f.maxBytes {
		return &errors.ResourceLimitError{LimitType: LimitArchiveSize, Current: int(n), Maximum: int(f.maxBytes)}
	}
	return nil
}

func (f *Fetcher) contextError(ctx context.Context, err error, url string) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeInternal, err, "archive download timed out after %s", f.timeout)
	}
	if stderrors.Is(err, integrations.ErrNotFound) {
		return err
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "downloading archive %s", url)
}

func (f *Fetcher) extractFile(ctx context.Context, path, root string) error {
	in, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "opening archive")
	}
	defer in.Close()

	tr, closeFn, err := newTarReader(bufio.NewReader(in))
	if err != nil {
		return errors.Wrap(errors.ErrCodeParsing, err, "unsupported archive")
	}
	defer closeFn()

	return extract(ctx, tr, root, f.maxBytes*expansionFactor)
}

// newTarReader sniffs the compression of r.
func newTarReader(r *bufio.Reader) (*tar.Reader, func(), error) {
	head, _ := r.Peek(len(xzMagic))
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return tar.NewReader(gz), func() { _ = gz.Close() }, nil
	case bytes.HasPrefix(head, xzMagic):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating xz reader: %w", err)
		}
		return tar.NewReader(xr), func() {}, nil
	}
	return tar.NewReader(r), func() {}, nil
}

// extract writes regular files and directories of tr below root. Links and
// device entries are skipped.
func extract(ctx context.Context, tr *tar.Reader, root string, maxTotal int64) error {
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "archive extraction interrupted")
		}
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeParsing, err, "reading archive entry")
		}

		target, err := safeJoin(root, header.Name)
		if err != nil {
			return err
		}
		if target == root {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "creating directory")
			}

		case tar.TypeReg:
			total += header.Size
			if total > maxTotal {
				return &errors.ResourceLimitError{LimitType: LimitArchiveSize, Current: int(total), Maximum: int(maxTotal)}
			}
			if err := writeFile(target, tr, header.Size); err != nil {
				return err
			}
		}
	}
}

func writeFile(target string, r io.Reader, size int64) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "creating parent directory")
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "creating file")
	}
	written, err := io.Copy(out, io.LimitReader(r, size))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "writing file")
	}
	if written != size {
		return errors.New(errors.ErrCodeParsing, "truncated archive entry %s", filepath.Base(target))
	}
	return nil
}

// safeJoin resolves an entry name below root, rejecting names that escape it.
func safeJoin(root, name string) (string, error) {
	clean := strings.TrimPrefix(filepath.ToSlash(name), "./")
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "/") {
		return "", errors.New(errors.ErrCodeValidation, "archive entry %q is absolute", name)
	}
	target := filepath.Join(root, filepath.FromSlash(clean))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", errors.New(errors.ErrCodeValidation, "archive entry %q escapes extraction root", name)
	}
	return target, nil
}
