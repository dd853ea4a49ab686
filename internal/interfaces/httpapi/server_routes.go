package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/health", handler.Health)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/matches", handler.ListMatches)
	mux.HandleFunc("GET /api/matches/{status}", handler.ListMatchesByStatus)
	mux.HandleFunc("GET /api/stats", handler.GetStats)
}

func registerCatalogRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /api/teams", handler.ListTeams)
}

// registerImageRoutes serves downloaded logos under /images/ so stored
// logo_url values resolve against the API host.
func registerImageRoutes(mux *http.ServeMux, imagesDir string) {
	if imagesDir == "" {
		return
	}
	mux.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(http.Dir(imagesDir))))
}
