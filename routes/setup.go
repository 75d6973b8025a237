package routes

import (
	"embed"
	"net/http"
)

func SetupRoutes(mux *http.ServeMux, staticFs embed.FS, app *App) {
	// Home path
	mux.HandleFunc("GET /{$}", app.Home)

	// Rendered page images
	mux.HandleFunc("GET /pages/{page}", app.PageImage)

	// Session state and mark management
	mux.HandleFunc("GET /api/document", app.DocumentState)
	mux.HandleFunc("POST /api/marks", app.AddMark)
	mux.HandleFunc("DELETE /api/marks/{id}", app.RemoveMark)
	mux.HandleFunc("POST /api/clear", app.Clear)

	// Text search
	mux.HandleFunc("POST /api/search", app.Search)

	// The point of no return
	mux.HandleFunc("POST /api/apply", app.Apply)

	// Serve css and JS
	mux.Handle("/static/", http.FileServerFS(staticFs))
}
