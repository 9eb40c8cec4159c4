package main

import (
	"embed"
	"net/http"
)

//go:embed static
var staticFS embed.FS

func registerPage(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, staticFS, "static/index.html")
	})
	mux.Handle("GET /static/", http.FileServerFS(staticFS))
}
