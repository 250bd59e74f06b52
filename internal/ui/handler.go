package ui

import (
	"embed"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

//go:embed dist/*
var content embed.FS

func init() {
	// Streaming compilation refuses anything but application/wasm.
	_ = mime.AddExtensionType(".wasm", "application/wasm")
}

// Handler serves the embedded browser client: the WebAssembly module, its
// loader and the shared stylesheet.
func Handler() http.Handler {
	sub, err := fs.Sub(content, "dist")
	if err != nil {
		return http.NotFoundHandler()
	}
	return FileServer(sub)
}

// FileServer serves files from fsys without directory listings.
func FileServer(fsys fs.FS) http.Handler {
	files := http.FS(fsys)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if p == "" || p == "." {
			http.NotFound(w, r)
			return
		}
		file, err := files.Open(p)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer file.Close()
		info, err := file.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(p, ".wasm") {
			w.Header().Set("Content-Type", "application/wasm")
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), file)
	})
}
