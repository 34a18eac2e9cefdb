package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// handleStatic serves the exported control-surface web build from dir.
// Unknown paths get index.html so client-side routes like /mobile/CTRLFR
// load the app; unknown /api paths stay JSON 404s.
func handleStatic(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		// Static exports write /display as display.html.
		if info, err := os.Stat(path + ".html"); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path+".html")
			return
		}
		http.ServeFile(w, r, index)
	}
}

func staticDir(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
