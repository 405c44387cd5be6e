package webui

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

//go:embed web/*
var content embed.FS

// Handler returns an http.Handler that serves the relay web page.
//
// When dir is non-empty and the directory exists, assets are served from
// the filesystem so page edits show up on refresh during development.
// When dir is empty, assets come from the embedded go:embed FS.
//
// Requests for paths that do not exist serve index.html with 200, so the
// UI is reachable from any path under the mount. Panics if the embedded
// assets cannot be loaded, which only happens on a broken build.
func Handler(dir string) http.Handler {
	fsys := assets(dir)
	pages := http.FileServer(fsys)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The page is mutable (no content hashing), so keep caches honest.
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		if !exists(fsys, r.URL.Path) {
			// Unknown path: land on the page instead of a bare 404.
			r.URL.Path = "/"
		}
		pages.ServeHTTP(w, r)
	})
}

// assets picks where page files come from: the directory override during
// development, the compiled-in copy otherwise.
func assets(dir string) http.FileSystem {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return http.Dir(dir)
		}
	}

	webFS, err := fs.Sub(content, "web")
	if err != nil {
		panic(fmt.Sprintf("webui: failed to load embedded assets: %v", err))
	}
	return http.FS(webFS)
}

// exists reports whether the cleaned request path names a real file in
// fsys. The root always exists; the file server maps it to index.html.
func exists(fsys http.FileSystem, upath string) bool {
	upath = path.Clean(upath)
	if upath == "/" || upath == "." {
		return true
	}

	f, err := fsys.Open(strings.TrimPrefix(upath, "/"))
	if err != nil {
		return false
	}
	f.Close()
	return true
}
