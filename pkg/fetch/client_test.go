package fetch

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cverrors "github.com/matzehuels/crateview/pkg/errors"
	"github.com/matzehuels/crateview/pkg/locator"
)

const minimalCrate = `{
	"@context": {"@vocab": "http://schema.org/"},
	"@graph": [
		{"@id": "./", "@type": "Dataset", "name": "Minimal"},
		{"@id": "ro-crate-metadata.json", "about": {"@id": "./"}}
	]
}`

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return New(Options{RetryDelay: time.Millisecond, UserAgent: "crateview-test"})
}

func TestFetchURL(t *testing.T) {
	var gotPath, gotAccept, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/ld+json")
		_, _ = w.Write([]byte(minimalCrate))
	}))
	defer server.Close()

	c := newTestClient(t)
	doc, err := c.Fetch(context.Background(), locator.Split(server.URL+"/crates/one"))
	require.NoError(t, err)

	assert.Equal(t, "Minimal", doc.Name())
	assert.Equal(t, "/crates/one/ro-crate-metadata.json", gotPath)
	assert.Contains(t, gotAccept, "application/ld+json")
	assert.Equal(t, "crateview-test", gotUA)
}

func TestFetchURLRememberedMetadataFile(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(minimalCrate))
	}))
	defer server.Close()

	c := newTestClient(t)
	_, err := c.Fetch(context.Background(), locator.Split(server.URL+"/c/custom-ro-crate-metadata.json"))
	require.NoError(t, err)
	assert.Equal(t, "/c/custom-ro-crate-metadata.json", gotPath)
}

func TestFetchURLStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   cverrors.Code
	}{
		{"not found", http.StatusNotFound, cverrors.ErrCodeNotFound},
		{"gone", http.StatusGone, cverrors.ErrCodeNotFound},
		{"forbidden", http.StatusForbidden, cverrors.ErrCodeNetwork},
		{"server error", http.StatusInternalServerError, cverrors.ErrCodeNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newTestClient(t).Fetch(context.Background(), locator.Split(server.URL+"/c/"))
			require.Error(t, err)
			assert.Equal(t, tt.code, cverrors.GetCode(err))
		})
	}
}

func TestFetchURLRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(minimalCrate))
	}))
	defer server.Close()

	_, err := newTestClient(t).Fetch(context.Background(), locator.Split(server.URL+"/c/"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchURLDoesNotRetryNotFound(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(t).Fetch(context.Background(), locator.Split(server.URL+"/c/"))
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchURLAlreadyIndexed(t *testing.T) {
	t.Run("location header", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", "/canonical/")
			w.WriteHeader(http.StatusConflict)
		}))
		defer server.Close()

		_, err := newTestClient(t).Fetch(context.Background(), locator.Split(server.URL+"/copy/"))
		ai, ok := cverrors.AsAlreadyIndexed(err)
		require.True(t, ok, "err = %v", err)
		assert.Equal(t, server.URL+"/canonical/", ai.Alternate)
	})

	t.Run("json body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"alternate": "https://other.org/c/"}`))
		}))
		defer server.Close()

		_, err := newTestClient(t).Fetch(context.Background(), locator.Split(server.URL+"/copy/"))
		ai, ok := cverrors.AsAlreadyIndexed(err)
		require.True(t, ok, "err = %v", err)
		assert.Equal(t, "https://other.org/c/", ai.Alternate)
	})

	t.Run("no alternate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`package is already indexed somewhere`))
		}))
		defer server.Close()

		_, err := newTestClient(t).Fetch(context.Background(), locator.Split(server.URL+"/copy/"))
		_, ok := cverrors.AsAlreadyIndexed(err)
		assert.False(t, ok)
		assert.Equal(t, cverrors.ErrCodeNetwork, cverrors.GetCode(err))
	})
}

func TestFetchURLSharesInFlightRequests(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(minimalCrate))
	}))
	defer server.Close()

	c := newTestClient(t)
	loc := locator.Split(server.URL + "/c/")

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Fetch(context.Background(), loc)
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return hits.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Less(t, hits.Load(), int32(callers))
}

func TestFetchURLCallerCancelDoesNotFailOthers(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(minimalCrate))
	}))
	defer server.Close()

	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	defer unblock()

	c := newTestClient(t)
	loc := locator.Split(server.URL + "/c/")

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()
	first := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx1, loc)
		first <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() >= 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() {
		_, err := c.Fetch(context.Background(), loc)
		second <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel1()
	select {
	case err := <-first:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	unblock()
	select {
	case err := <-second:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchInvalidDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"@graph": []}`))
	}))
	defer server.Close()

	_, err := newTestClient(t).Fetch(context.Background(), locator.Split(server.URL+"/c/"))
	assert.True(t, cverrors.Is(err, cverrors.ErrCodeInvalidCrate), "err = %v", err)
}

func TestFetchLocalDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ro-crate-metadata.json"), []byte(minimalCrate), 0o644))

	doc, err := newTestClient(t).Fetch(context.Background(), locator.Split(dir))
	require.NoError(t, err)
	assert.Equal(t, "Minimal", doc.Name())
}

func TestFetchLocalJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(minimalCrate), 0o644))

	doc, err := newTestClient(t).Fetch(context.Background(), locator.Split(path))
	require.NoError(t, err)
	assert.Equal(t, "Minimal", doc.Name())
}

func TestFetchLocalMissing(t *testing.T) {
	_, err := newTestClient(t).Fetch(context.Background(), locator.Split(filepath.Join(t.TempDir(), "nope")))
	assert.Equal(t, cverrors.ErrCodeNotFound, cverrors.GetCode(err))
}

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestFetchArchive(t *testing.T) {
	nested := `{"@context": {}, "@graph": [{"@id": "./", "name": "Nested"}]}`
	path := writeZip(t, map[string]string{
		"bundle/data/sub/ro-crate-metadata.json": nested,
		"bundle/ro-crate-metadata.json":          minimalCrate,
		"bundle/data/file.csv":                   "a,b\n",
	})

	doc, err := newTestClient(t).Fetch(context.Background(), locator.Split(path))
	require.NoError(t, err)
	assert.Equal(t, "Minimal", doc.Name())
}

func TestFetchArchiveWithoutMetadata(t *testing.T) {
	path := writeZip(t, map[string]string{"readme.txt": "hi"})
	_, err := newTestClient(t).Fetch(context.Background(), locator.Split(path))
	assert.Equal(t, cverrors.ErrCodeNotFound, cverrors.GetCode(err))
}

func TestAddText(t *testing.T) {
	c := newTestClient(t)

	loc, err := c.AddText([]byte(minimalCrate))
	require.NoError(t, err)
	assert.True(t, loc.IsText())

	again, err := c.AddText([]byte(minimalCrate))
	require.NoError(t, err)
	assert.Equal(t, loc, again)

	doc, err := c.Fetch(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, "Minimal", doc.Name())

	_, err = c.AddText(nil)
	assert.True(t, cverrors.Is(err, cverrors.ErrCodeInvalidInput))

	_, err = c.Fetch(context.Background(), locator.Locator{Base: "text:unknown"})
	assert.Equal(t, cverrors.ErrCodeNotFound, cverrors.GetCode(err))
}

func TestFetchEmptyLocator(t *testing.T) {
	_, err := newTestClient(t).Fetch(context.Background(), locator.Locator{})
	assert.True(t, cverrors.Is(err, cverrors.ErrCodeInvalidInput))
}
