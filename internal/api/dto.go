package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/jot/internal/models"
	"github.com/starford/jot/internal/noteservice"
)

const maxTitleRunes = 1000

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title string `json:"title" example:"Groceries"`
	Body  string `json:"body" example:"eggs, milk"`
}

// Validate validates the request.
func (r *CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.RuneLength(0, maxTitleRunes)),
	)
}

// UpdateNoteRequest is the request body for replacing a note's body.
type UpdateNoteRequest struct {
	Body *string `json:"body" example:"eggs, milk, bread"`
}

// Validate validates the request.
func (r *UpdateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Body, validation.NotNil),
	)
}

// UpdateNoteFullRequest is the request body for replacing title and body.
type UpdateNoteFullRequest struct {
	Title *string `json:"title" example:"Shopping"`
	Body  *string `json:"body" example:"eggs, milk, bread"`
}

// Validate validates the request.
func (r *UpdateNoteFullRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.NotNil, validation.RuneLength(0, maxTitleRunes)),
		validation.Field(&r.Body, validation.NotNil),
	)
}

// IDsRequest carries note ids for bulk deletes.
type IDsRequest struct {
	IDs []int64 `json:"ids"`
}

// Validate validates the request.
func (r *IDsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.NotNil),
	)
}

// SeedRequest is the request body for creating sample notes.
type SeedRequest struct {
	Count int `json:"count" example:"100"`
}

// Validate validates the request.
func (r *SeedRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Count, validation.Min(0), validation.Max(noteservice.MaxSeed)),
	)
}

// ImportRequest lists files to import. Unreadable entries, including empty
// paths, are reported as skipped rather than rejected.
type ImportRequest struct {
	Paths []string `json:"paths"`
}

// Validate validates the request.
func (r *ImportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Paths, validation.NotNil),
	)
}

// ScanRequest lists directories to search for import candidates.
type ScanRequest struct {
	Dirs    []string `json:"dirs"`
	Pattern string   `json:"pattern" example:"*.txt"`
}

// Validate validates the request.
func (r *ScanRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Dirs, validation.Required, validation.Each(validation.Required)),
	)
}

// ExportRequest selects notes and an optional target directory.
type ExportRequest struct {
	IDs []int64 `json:"ids"`
	Dir string  `json:"dir,omitempty"`
}

// Validate validates the request.
func (r *ExportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.NotNil),
	)
}

// IDResponse returns the id of a created note.
type IDResponse struct {
	ID int64 `json:"id" example:"42"`
}

// CountResponse returns a note count.
type CountResponse struct {
	Count int `json:"count" example:"42"`
}

// DeletedResponse returns how many notes a bulk delete removed.
type DeletedResponse struct {
	Deleted int `json:"deleted" example:"3"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchResult `json:"results"`
}

// ScanResponse wraps scan results.
type ScanResponse struct {
	Files []models.FileEntry `json:"files"`
}

// ExportResponse reports an export.
type ExportResponse struct {
	Count   int    `json:"count"`
	Dir     string `json:"dir"`
	Message string `json:"message"`
}
