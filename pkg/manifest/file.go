package manifest

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"syscall"

	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/pkgspec"
)

// ReadFile reads and parses the manifest at path. A missing file declares
// no dependencies. Permission failures are reported as ACCESS_ERROR.
func ReadFile(path string) ([]pkgspec.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer func() { _ = f.Close() }()

	if info, err := f.Stat(); err == nil {
		if info.IsDir() {
			return nil, nil
		}
		if info.Size() > MaxFileSize {
			return nil, &errors.ResourceLimitError{LimitType: LimitFileSize, Current: int(info.Size()), Maximum: MaxFileSize}
		}
	}

	// The file may grow between Stat and Read.
	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "reading %s", FileName)
	}
	return Parse(data)
}

func openError(path string, err error) error {
	switch {
	case stderrors.Is(err, fs.ErrNotExist), stderrors.Is(err, syscall.ENOTDIR):
		return nil
	case stderrors.Is(err, fs.ErrPermission):
		return errors.Wrap(errors.ErrCodeAccess, err, "permission denied reading %s", path)
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "opening %s", FileName)
}
