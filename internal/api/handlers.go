package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/jot/internal/apperr"
	"github.com/starford/jot/internal/models"
	"github.com/starford/jot/internal/noteservice"
	"github.com/starford/jot/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// noteID parses the {id} URL parameter.
func noteID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid note id %q: %w", raw, apperr.ErrInvalidInput)
	}
	return id, nil
}

// Search handles GET /api/search.
//
//	@Summary		Search notes by keyword and y:/m: date tokens
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	false	"Query; empty lists newest notes"
//	@Param			limit	query		int		false	"Max results (default 100)"
//	@Success		200		{object}	SearchResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, err := searchLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, "search", err)
		return
	}
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// searchLimit parses the limit query parameter. An absent value means
// store.DefaultSearchLimit; zero is honoured.
func searchLimit(raw string) (int, error) {
	if raw == "" {
		return store.DefaultSearchLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q: %w", raw, apperr.ErrInvalidInput)
	}
	return n, nil
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	if note == nil {
		writeError(w, "get note", fmt.Errorf("note %d: %w", id, apperr.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	IDResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "create note", err)
		return
	}
	id, err := h.svc.CreateNote(r.Context(), req.Title, req.Body)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// UpdateNote handles PATCH /api/notes/{id}.
//
//	@Summary		Replace a note's body
//	@Tags			notes
//	@Accept			json
//	@Param			id		path	int					true	"Note id"
//	@Param			body	body	UpdateNoteRequest	true	"New body"
//	@Success		204		"Note updated"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [patch]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	var req UpdateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "update note", err)
		return
	}
	if err := h.svc.UpdateNote(r.Context(), id, *req.Body); err != nil {
		writeError(w, "update note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateNoteFull handles PUT /api/notes/{id}.
//
//	@Summary		Replace a note's title and body
//	@Tags			notes
//	@Accept			json
//	@Param			id		path	int						true	"Note id"
//	@Param			body	body	UpdateNoteFullRequest	true	"New title and body"
//	@Success		204		"Note updated"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNoteFull(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	var req UpdateNoteFullRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "update note", err)
		return
	}
	if err := h.svc.UpdateNoteFull(r.Context(), id, *req.Title, *req.Body); err != nil {
		writeError(w, "update note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	int	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, "delete note", err)
		return
	}
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNotes handles POST /api/notes/delete.
//
//	@Summary		Delete several notes; unknown ids are ignored
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		IDsRequest	true	"Ids to delete"
//	@Success		200		{object}	DeletedResponse
//	@Security		BearerAuth
//	@Router			/notes/delete [post]
func (h *Handler) DeleteNotes(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "delete notes", err)
		return
	}
	n, err := h.svc.DeleteNotes(r.Context(), req.IDs)
	if err != nil {
		writeError(w, "delete notes", err)
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Deleted: n})
}

// Count handles GET /api/notes/count.
//
//	@Summary		Count notes
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	CountResponse
//	@Security		BearerAuth
//	@Router			/notes/count [get]
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.NoteCount(r.Context())
	if err != nil {
		writeError(w, "count notes", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// Seed handles POST /api/notes/seed.
//
//	@Summary		Create sample notes
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SeedRequest	true	"How many"
//	@Success		200		{object}	CountResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/seed [post]
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	var req SeedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "seed notes", err)
		return
	}
	if err := h.svc.SeedNotes(r.Context(), req.Count); err != nil {
		writeError(w, "seed notes", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: req.Count})
}

// Import handles POST /api/import.
//
//	@Summary		Import text files, skipping duplicates
//	@Tags			import
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Files"
//	@Success		200		{object}	models.ImportResult
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ImportFiles(r.Context(), req.Paths))
}

// Scan handles POST /api/scan.
//
//	@Summary		List import candidates
//	@Tags			import
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ScanRequest	true	"Directories and glob"
//	@Success		200		{object}	ScanResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scan [post]
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "scan", err)
		return
	}
	files, err := h.svc.ScanDirectories(req.Dirs, req.Pattern)
	if err != nil {
		writeError(w, "scan", err)
		return
	}
	writeJSON(w, http.StatusOK, ScanResponse{Files: files})
}

// Export handles POST /api/export.
//
//	@Summary		Export notes as files
//	@Tags			export
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExportRequest	true	"Ids and optional directory"
//	@Success		200		{object}	ExportResponse
//	@Security		BearerAuth
//	@Router			/export [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "export", err)
		return
	}
	res, err := h.svc.ExportNotes(r.Context(), req.IDs, req.Dir)
	if err != nil {
		writeError(w, "export", err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse(res))
}

func exportResponse(res models.ExportResult) ExportResponse {
	return ExportResponse{Count: res.Count, Dir: res.Dir, Message: res.Message()}
}
