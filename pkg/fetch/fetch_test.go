package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/cache"
	"github.com/matzehuels/jarmill/pkg/errors"
	"github.com/matzehuels/jarmill/pkg/httputil"
)

type server struct {
	*httptest.Server

	manifestHits atomic.Int32
	jarHits      atomic.Int32
	failJar      atomic.Int32 // respond 503 this many times
	jars         map[string][]byte
	sha          map[string]string
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{
		jars: map[string][]byte{
			"client": []byte("client jar bytes"),
			"server": []byte("server jar bytes"),
		},
		sha: map[string]string{},
	}
	for k, v := range s.jars {
		sum := sha1.Sum(v)
		s.sha[k] = hex.EncodeToString(sum[:])
	}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/versions.json":
			s.manifestHits.Add(1)
			downloads := map[string]Download{}
			for k, v := range s.jars {
				downloads[k] = Download{URL: s.URL + "/jars/" + k, SHA1: s.sha[k], Size: int64(len(v))}
			}
			json.NewEncoder(w).Encode(Manifest{Versions: map[string]Version{"7.0": {Downloads: downloads}}})
		case "/jars/client", "/jars/server":
			s.jarHits.Add(1)
			if s.failJar.Load() > 0 {
				s.failJar.Add(-1)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write(s.jars[filepath.Base(r.URL.Path)])
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func newFetcher(t *testing.T, s *server, c cache.Cache) *HTTPFetcher {
	t.Helper()
	f, err := New(Options{
		ManifestURL: s.URL + "/versions.json",
		Cache:       c,
		Client:      httputil.NewClientFrom(s.Client()),
		Delay:       time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestFetchDownloadsAndVerifies(t *testing.T) {
	s := newServer(t)
	f := newFetcher(t, s, nil)
	dest := filepath.Join(t.TempDir(), "mindustry-7.0-client.jar")

	if err := f.Fetch(context.Background(), "7.0", artifact.KindClient, dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "client jar bytes" {
		t.Errorf("content = %q", data)
	}

	// Matching checksum on disk: no second download.
	if err := f.Fetch(context.Background(), "7.0", artifact.KindClient, dest); err != nil {
		t.Fatal(err)
	}
	if got := s.jarHits.Load(); got != 1 {
		t.Errorf("jar requests = %d, want 1", got)
	}
}

func TestFetchReplacesStaleJar(t *testing.T) {
	s := newServer(t)
	f := newFetcher(t, s, nil)
	dest := filepath.Join(t.TempDir(), "server.jar")
	os.WriteFile(dest, []byte("old"), 0o644)

	if err := f.Fetch(context.Background(), "7.0", artifact.KindServer, dest); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "server jar bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestFetchRetriesTransient(t *testing.T) {
	s := newServer(t)
	s.failJar.Store(2)
	f := newFetcher(t, s, nil)
	dest := filepath.Join(t.TempDir(), "client.jar")

	if err := f.Fetch(context.Background(), "7.0", artifact.KindClient, dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := s.jarHits.Load(); got != 3 {
		t.Errorf("jar requests = %d, want 3", got)
	}
}

func TestFetchChecksumMismatch(t *testing.T) {
	s := newServer(t)
	s.sha["client"] = "0000000000000000000000000000000000000000"
	f := newFetcher(t, s, nil)
	dest := filepath.Join(t.TempDir(), "client.jar")

	err := f.Fetch(context.Background(), "7.0", artifact.KindClient, dest)
	if errors.GetCode(err) != errors.ErrCodeChecksumMismatch {
		t.Fatalf("err = %v, want CHECKSUM_MISMATCH", err)
	}
	if !errors.IsTransient(err) {
		t.Error("checksum mismatch should be transient")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("unverified jar must not be left at dest")
	}
}

func TestFetchUnknownVersion(t *testing.T) {
	s := newServer(t)
	f := newFetcher(t, s, nil)

	err := f.Fetch(context.Background(), "9.9", artifact.KindClient, filepath.Join(t.TempDir(), "x.jar"))
	if errors.GetCode(err) != errors.ErrCodeNotFound {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestManifestLoadedOnceConcurrently(t *testing.T) {
	s := newServer(t)
	f := newFetcher(t, s, nil)
	dir := t.TempDir()

	var wg sync.WaitGroup
	for _, kind := range []artifact.Kind{artifact.KindClient, artifact.KindServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.Fetch(context.Background(), "7.0", kind, filepath.Join(dir, string(kind)+".jar")); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := s.manifestHits.Load(); got != 1 {
		t.Errorf("manifest requests = %d, want 1", got)
	}
}

func TestManifestCachedAcrossFetchers(t *testing.T) {
	s := newServer(t)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for range 2 {
		if _, err := newFetcher(t, s, fc).Manifest(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.manifestHits.Load(); got != 1 {
		t.Errorf("manifest requests = %d, want 1", got)
	}
}

func TestManifestRefreshBypassesCache(t *testing.T) {
	s := newServer(t)
	fc, _ := cache.NewFileCache(t.TempDir())

	newFetcher(t, s, fc).Manifest(context.Background())
	f, _ := New(Options{
		ManifestURL: s.URL + "/versions.json",
		Cache:       fc,
		Client:      httputil.NewClientFrom(s.Client()),
		Refresh:     true,
	})
	if _, err := f.Manifest(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.manifestHits.Load(); got != 2 {
		t.Errorf("manifest requests = %d, want 2", got)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com/v.json", "versions.json"} {
		if _, err := New(Options{ManifestURL: u}); errors.GetCode(err) != errors.ErrCodeConfiguration {
			t.Errorf("New(%q) err = %v, want CONFIGURATION", u, err)
		}
	}
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(`{"versions":{"146":{"downloads":{"client":{"url":"https://x/c.jar","sha1":"ab"}}}}}`))
	if err != nil {
		t.Fatal(err)
	}
	d, err := m.Lookup("146", artifact.KindClient)
	if err != nil || d.URL != "https://x/c.jar" || d.SHA1 != "ab" {
		t.Errorf("Lookup = %+v, %v", d, err)
	}
	if _, err := m.Lookup("146", artifact.KindServer); errors.GetCode(err) != errors.ErrCodeNotFound {
		t.Errorf("missing server download: err = %v", err)
	}

	for _, bad := range []string{"", "{", `{"other":1}`} {
		if _, err := ParseManifest([]byte(bad)); errors.GetCode(err) != errors.ErrCodeInvalidInput {
			t.Errorf("ParseManifest(%q) err = %v", bad, err)
		}
	}
}
