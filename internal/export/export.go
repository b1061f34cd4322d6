// Package export writes notes out as one file per note.
package export

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/starford/jot/internal/apperr"
	"github.com/starford/jot/internal/models"
	"github.com/starford/jot/internal/storage"
	"github.com/starford/jot/internal/store"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Format selects the exported document type.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f == FormatMarkdown || f == FormatHTML
}

func (f Format) ext() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

const (
	maxTitleRunes = 50
	stampLayout   = "2006-01-02 15:04"
)

// Locker grants exclusive access to the note store. *store.DB satisfies it.
type Locker interface {
	Locked(fn func(s *store.Session) error) error
}

// Exporter renders notes and writes them into a directory.
type Exporter struct {
	db     Locker
	format Format
	md     goldmark.Markdown
	logger *slog.Logger
}

// New creates an Exporter. An empty format means markdown.
func New(db Locker, format Format, logger *slog.Logger) *Exporter {
	if format == "" {
		format = FormatMarkdown
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		db:     db,
		format: format,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger: logger,
	}
}

// Export writes each distinct note in ids into dir, creating dir if needed.
// Ids with no note are skipped. It returns the number of files written.
// The whole export holds the store lock, so notes cannot change mid-way.
func (e *Exporter) Export(ctx context.Context, ids []int64, dir string) (int, error) {
	target, err := storage.MkdirFS(dir)
	if err != nil {
		return 0, fmt.Errorf("export: %w: %w", apperr.ErrExportFailed, err)
	}
	return e.ExportTo(ctx, ids, target)
}

// ExportTo is Export with an explicit target.
func (e *Exporter) ExportTo(ctx context.Context, ids []int64, target storage.Provider) (int, error) {
	count := 0
	seen := make(map[int64]bool, len(ids))

	err := e.db.Locked(func(s *store.Session) error {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true

			n, err := s.Get(ctx, id)
			if err != nil {
				return err
			}
			if n == nil {
				e.logger.Debug("export: note missing", slog.Int64("id", id))
				continue
			}

			content, err := e.Render(n)
			if err != nil {
				return err
			}
			if err := target.Write(FileName(n, e.format), content); err != nil {
				return fmt.Errorf("export: %w: %w", apperr.ErrExportFailed, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	e.logger.Info("export: finished",
		slog.Int("count", count),
		slog.String("dir", target.Root()),
		slog.String("format", string(e.format)))
	return count, nil
}

// Render returns the file content for n in the exporter's format.
func (e *Exporter) Render(n *models.Note) ([]byte, error) {
	doc := Markdown(n)
	if e.format != FormatHTML {
		return []byte(doc), nil
	}

	var body bytes.Buffer
	if err := e.md.Convert([]byte(doc), &body); err != nil {
		return nil, fmt.Errorf("export: render note %d: %w: %w", n.ID, apperr.ErrExportFailed, err)
	}
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(n.Title))
	b.WriteString("</title>\n</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.Bytes(), nil
}

// Markdown returns the exported markdown document for n.
func Markdown(n *models.Note) string {
	return fmt.Sprintf("# %s\n\n_Created: %s | Updated: %s_\n\n%s",
		n.Title,
		n.CreatedAt.UTC().Format(stampLayout),
		n.UpdatedAt.UTC().Format(stampLayout),
		n.Body)
}

// FileName returns "note-<id>-<title>.<ext>", or "note-<id>.<ext>" when the
// sanitized title is empty. The id keeps names unique.
func FileName(n *models.Note, f Format) string {
	name := "note-" + strconv.FormatInt(n.ID, 10)
	if safe := SanitizeTitle(n.Title); safe != "" {
		name += "-" + safe
	}
	return name + f.ext()
}

// SanitizeTitle keeps alphanumerics, spaces, '-' and '_', takes the first
// 50 of those, trims, and turns spaces into hyphens. Alphanumeric includes
// the Other_Alphabetic marks, such as Indic vowel signs.
func SanitizeTitle(title string) string {
	var b strings.Builder
	kept := 0
	for _, r := range title {
		if kept == maxTitleRunes {
			break
		}
		if unicode.In(r, unicode.Letter, unicode.Number, unicode.Other_Alphabetic) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
			kept++
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "-")
}
