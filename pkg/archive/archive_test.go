package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations"
)

type entry struct {
	name string
	body string
	dir  bool
}

func buildTar(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		h := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.dir {
			h = &tar.Header{Name: e.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		if err := tw.WriteHeader(h); err != nil {
			t.Fatal(err)
		}
		if !e.dir {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func xzed(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func serve(t *testing.T, body []byte) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pkg.tgz" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestExtractFormats(t *testing.T) {
	raw := buildTar(t, []entry{
		{name: "package/", dir: true},
		{name: "package/package.json", body: `{"name":"plugin-a"}`},
		{name: "package/plugin-dependencies.yaml", body: "dependencies: [plugin-b]\n"},
	})

	tests := []struct {
		name string
		body []byte
	}{
		{"tar", raw},
		{"tar.gz", gzipped(t, raw)},
		{"tar.xz", xzed(t, raw)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := serve(t, tt.body)
			f := NewFetcher(5*time.Second, 0, nil)

			var seen string
			err := f.Extract(context.Background(), url+"/pkg.tgz", func(dir string) error {
				seen = dir
				data, err := os.ReadFile(filepath.Join(dir, "package", "plugin-dependencies.yaml"))
				if err != nil {
					return err
				}
				if string(data) != "dependencies: [plugin-b]\n" {
					t.Errorf("manifest = %q", data)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if _, err := os.Stat(seen); !os.IsNotExist(err) {
				t.Errorf("extraction directory %s not removed", seen)
			}
		})
	}
}

func TestExtractRemovesDirOnCallbackError(t *testing.T) {
	url := serve(t, gzipped(t, buildTar(t, []entry{{name: "package/x", body: "x"}})))
	f := NewFetcher(5*time.Second, 0, nil)

	boom := stderrors.New("parse failed")
	var seen string
	err := f.Extract(context.Background(), url+"/pkg.tgz", func(dir string) error {
		seen = dir
		return boom
	})
	if !stderrors.Is(err, boom) {
		t.Fatalf("Extract() error = %v, want callback error", err)
	}
	if _, err := os.Stat(seen); !os.IsNotExist(err) {
		t.Errorf("extraction directory %s not removed", seen)
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	for _, name := range []string{"../evil", "package/../../evil", "/etc/evil"} {
		t.Run(name, func(t *testing.T) {
			url := serve(t, buildTar(t, []entry{{name: name, body: "x"}}))
			f := NewFetcher(5*time.Second, 0, nil)

			called := false
			err := f.Extract(context.Background(), url+"/pkg.tgz", func(string) error {
				called = true
				return nil
			})
			if !errors.Is(err, errors.ErrCodeValidation) {
				t.Errorf("Extract() error = %v, want VALIDATION_ERROR", err)
			}
			if called {
				t.Error("callback must not run for a rejected archive")
			}
		})
	}
}

func TestExtractSizeCap(t *testing.T) {
	url := serve(t, buildTar(t, []entry{{name: "big", body: string(make([]byte, 4096))}}))
	f := NewFetcher(5*time.Second, 1024, nil)

	err := f.Extract(context.Background(), url+"/pkg.tgz", func(string) error { return nil })
	var rl *errors.ResourceLimitError
	if !stderrors.As(err, &rl) {
		t.Fatalf("Extract() error = %v, want ResourceLimitError", err)
	}
	if rl.LimitType != LimitArchiveSize || rl.Maximum != 1024 {
		t.Errorf("limit = %+v", rl)
	}
}

func TestExtractNotFound(t *testing.T) {
	url := serve(t, nil)
	f := NewFetcher(5*time.Second, 0, nil)

	err := f.Extract(context.Background(), url+"/missing.tgz", func(string) error { return nil })
	if !stderrors.Is(err, integrations.ErrNotFound) {
		t.Errorf("Extract() error = %v, want ErrNotFound", err)
	}
}

func TestExtractTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	f := NewFetcher(50*time.Millisecond, 0, nil)
	err := f.Extract(context.Background(), server.URL, func(string) error { return nil })
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Extract() error = %v, want INTERNAL_ERROR", err)
	}
}

func TestSafeJoin(t *testing.T) {
	root := filepath.Join(os.TempDir(), "root")
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"package/a.txt", filepath.Join(root, "package", "a.txt"), false},
		{"./package/b.txt", filepath.Join(root, "package", "b.txt"), false},
		{"./", root, false},
		{"../x", "", true},
		{"/abs", "", true},
		{"a/../../x", "", true},
	}
	for _, tt := range tests {
		got, err := safeJoin(root, tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("safeJoin(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("safeJoin(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtractRejectsNonHTTPURL(t *testing.T) {
	f := NewFetcher(5*time.Second, 0, nil)

	called := false
	err := f.Extract(context.Background(), "file:///etc/passwd", func(string) error {
		called = true
		return nil
	})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Extract() error = %v, want INVALID_INPUT", err)
	}
	if called {
		t.Error("callback should not run")
	}
}
