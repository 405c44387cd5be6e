package webui

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandlerServesRoot(t *testing.T) {
	handler := Handler("")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("GET /: got status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("GET /: response doesn't contain HTML doctype")
	}
	if !strings.Contains(w.Body.String(), "relayd") {
		t.Error("GET /: response doesn't look like the relay page")
	}
}

func TestHandlerSetsNoCache(t *testing.T) {
	handler := Handler("")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Cache-Control"); !strings.Contains(got, "no-cache") {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}
}

func TestHandlerUnknownPathServesIndex(t *testing.T) {
	handler := Handler("")

	req := httptest.NewRequest(http.MethodGet, "/no/such/asset.js", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("GET /no/such/asset.js: got status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("unknown path didn't fall back to index.html")
	}
}

func TestHandlerFilesystemMode(t *testing.T) {
	dir := t.TempDir()
	indexContent := `<!DOCTYPE html><html><body>filesystem page</body></html>`
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexContent), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "extra.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	handler := Handler(dir)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("filesystem GET /: got status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "filesystem page") {
		t.Errorf("filesystem GET /: expected filesystem content, got %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/extra.css", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("filesystem GET /extra.css: got status %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/missing", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "filesystem page") {
		t.Error("filesystem fallback didn't serve filesystem index.html")
	}
}

func TestHandlerInvalidDirFallsBackToEmbed(t *testing.T) {
	handler := Handler("/nonexistent/dir/that/does/not/exist")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("invalid dir GET /: got status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("invalid dir: didn't fall back to embedded index.html")
	}
}
