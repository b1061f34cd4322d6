package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/starford/jot/internal/models"
)

const previewWidth = 72

// printer writes command results as aligned text for a terminal or as
// JSON for scripts.
type printer struct {
	w     io.Writer
	human bool
}

func newPrinter(w io.Writer, human bool) *printer {
	return &printer{w: w, human: human}
}

func (p *printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// value prints text on a terminal and v otherwise.
func (p *printer) value(v any, text string) error {
	if !p.human {
		return p.writeJSON(v)
	}
	_, err := fmt.Fprintln(p.w, text)
	return err
}

func (p *printer) results(rs []models.SearchResult) error {
	if !p.human {
		return p.writeJSON(rs)
	}
	if len(rs) == 0 {
		_, err := fmt.Fprintln(p.w, "no notes found")
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, r := range rs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t\t%s\n", r.ID, r.DateString(), r.WordsString(), r.DisplayText(previewWidth))
	}
	return tw.Flush()
}

func (p *printer) note(n *models.Note) error {
	if !p.human {
		return p.writeJSON(n)
	}
	source := "written"
	if n.Imported() {
		source = "imported"
	}
	_, err := fmt.Fprintf(p.w, "# %s\n%s %s | updated %s\n\n%s\n",
		n.Title,
		source,
		n.CreatedAt.Local().Format(time.DateTime),
		n.UpdatedAt.Local().Format(time.DateTime),
		n.Body)
	return err
}

func (p *printer) files(fs []models.FileEntry) error {
	if !p.human {
		return p.writeJSON(fs)
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, f := range fs {
		fmt.Fprintf(tw, "%d\t%s\n", f.Size, f.Path)
	}
	return tw.Flush()
}
