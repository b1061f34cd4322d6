package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/jot/internal/noteservice"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string
	// AllowedOrigins are the CORS origins of the GUI shell.
	AllowedOrigins []string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted. Paths are
// relative; the caller mounts the router under /api.
func NewRouter(svc *noteservice.Service, opts RouterOptions) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	// go-chi/cors treats an empty origin list as "*".
	if len(opts.AllowedOrigins) > 0 {
		r.Use(CORS(opts.AllowedOrigins))
	}
	r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))

	r.Get("/search", h.Search)

	r.Route("/notes", func(r chi.Router) {
		r.Post("/", h.CreateNote)
		r.Get("/count", h.Count)
		r.Post("/delete", h.DeleteNotes)
		r.Post("/seed", h.Seed)
		r.Get("/{id}", h.GetNote)
		r.Patch("/{id}", h.UpdateNote)
		r.Put("/{id}", h.UpdateNoteFull)
		r.Delete("/{id}", h.DeleteNote)
	})

	r.Post("/import", h.Import)
	r.Post("/scan", h.Scan)
	r.Post("/export", h.Export)

	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	return r
}
