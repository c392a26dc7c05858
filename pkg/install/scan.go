package install

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
)

// ScanInstalled lists the dependencies recorded in <dir>/package.json.
// A missing file means nothing is installed.
func ScanInstalled(dir string) ([]InstalledPlugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if stderrors.Is(err, fs.ErrPermission) {
		return nil, errors.Wrap(errors.ErrCodeAccess, err, "read package.json")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read package.json")
	}

	var pkg struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParsing, err, "parse %s", filepath.Join(dir, "package.json"))
	}

	plugins := make([]InstalledPlugin, 0, len(pkg.Dependencies))
	for name, version := range pkg.Dependencies {
		plugins = append(plugins, InstalledPlugin{Name: name, Version: version})
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name < plugins[j].Name })
	return plugins, nil
}
