package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/jot/internal/models"
)

// DefaultSearchLimit is the limit transports use when the caller gives none.
// Search also falls back to it for a negative limit; a zero limit returns no
// rows.
const DefaultSearchLimit = 100

const previewRunes = 100

const (
	minFilterYear = 1900
	maxFilterYear = 2100
)

// DateFilter restricts results to a year, or to one month of a year.
type DateFilter struct {
	Year  int
	Month int // 0 means the whole year
}

// pattern returns the created_at LIKE pattern for the filter.
func (f DateFilter) pattern() string {
	if f.Month == 0 {
		return fmt.Sprintf("%04d-%%", f.Year)
	}
	return fmt.Sprintf("%04d-%02d-%%", f.Year, f.Month)
}

// Query is a parsed search string.
type Query struct {
	Date *DateFilter
	Text string
}

// ParseQuery splits a search string into an optional date filter and the
// residual text. Recognised tokens (case-insensitive prefixes):
//
//	y:2024  year:2024        whole year, 1900..2100
//	m:03/24 month:3/2024     one month; two-digit years mean 20YY
//
// When several date tokens are present the last valid one wins. Invalid date
// tokens are kept as ordinary text.
func ParseQuery(query string) Query {
	var (
		q    Query
		rest []string
	)
	for _, part := range strings.Fields(query) {
		lower := strings.ToLower(part)

		if v, ok := cutAnyPrefix(lower, "y:", "year:"); ok {
			if year, err := strconv.Atoi(v); err == nil && validYear(year) {
				q.Date = &DateFilter{Year: year}
				continue
			}
		}

		if v, ok := cutAnyPrefix(lower, "m:", "month:"); ok {
			if f, ok := parseMonthYear(v); ok {
				q.Date = &f
				continue
			}
		}

		rest = append(rest, part)
	}
	q.Text = strings.Join(rest, " ")
	return q
}

// parseMonthYear parses MM/YY or MM/YYYY. Two-digit years are always taken as
// 2000+YY, so "m:05/99" means May 2099, not 1999.
func parseMonthYear(s string) (DateFilter, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return DateFilter{}, false
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return DateFilter{}, false
	}

	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return DateFilter{}, false
	}
	if len(parts[1]) == 2 {
		year += 2000
	}
	if !validYear(year) {
		return DateFilter{}, false
	}
	return DateFilter{Year: year, Month: month}, true
}

func validYear(y int) bool {
	return y >= minFilterYear && y <= maxFilterYear
}

func cutAnyPrefix(s string, prefixes ...string) (string, bool) {
	for _, p := range prefixes {
		if v, ok := strings.CutPrefix(s, p); ok {
			return v, true
		}
	}
	return "", false
}

// Search runs a parsed query against stored notes, newest created_at first.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	return lockedValue(db, func(s *Session) ([]models.SearchResult, error) {
		return s.Search(ctx, query, limit)
	})
}

// Search runs a parsed query against stored notes, newest created_at first.
// Text matches are case-insensitive substrings of title or body.
func (s *Session) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if limit < 0 {
		limit = DefaultSearchLimit
	}
	q := ParseQuery(query)

	var (
		where []string
		args  []any
	)
	if q.Date != nil {
		where = append(where, `created_at LIKE ?`)
		args = append(args, q.Date.pattern())
	}
	if q.Text != "" {
		like := "%" + escapeLike(strings.ToLower(q.Text)) + "%"
		where = append(where, `(unicode_lower(title) LIKE ? ESCAPE '\' OR unicode_lower(body) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}

	stmt := `SELECT id, title, body, created_at FROM notes`
	if len(where) > 0 {
		stmt += ` WHERE ` + strings.Join(where, ` AND `)
	}
	stmt += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	out := []models.SearchResult{}
	for rows.Next() {
		var (
			r       models.SearchResult
			body    string
			created string
		)
		if err := rows.Scan(&r.ID, &r.Title, &body, &created); err != nil {
			return nil, fmt.Errorf("store: search: %w", err)
		}
		r.BodyPreview = truncateRunes(body, previewRunes)
		r.WordCount = len(strings.Fields(body))
		r.CreatedAt = s.parseTime(created)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE metacharacters in s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
