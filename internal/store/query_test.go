package store

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestParseQuery(t *testing.T) {
	cases := []struct {
		in    string
		year  int
		month int
		text  string
	}{
		{in: "", text: ""},
		{in: "  hello   world ", text: "hello world"},
		{in: "y:2024", year: 2024},
		{in: "YEAR:1999 notes", year: 1999, text: "notes"},
		{in: "y:1899", text: "y:1899"},
		{in: "y:2101", text: "y:2101"},
		{in: "y:abc", text: "y:abc"},
		{in: "m:03/24 alpha", year: 2024, month: 3, text: "alpha"},
		{in: "month:3/2023", year: 2023, month: 3},
		{in: "M:12/99", year: 2099, month: 12},
		{in: "m:13/24", text: "m:13/24"},
		{in: "m:00/24", text: "m:00/24"},
		{in: "m:03/1850", text: "m:03/1850"},
		{in: "m:03-24", text: "m:03-24"},
		{in: "m:1/2/3", text: "m:1/2/3"},
		{in: "y:2020 m:02/21 y:2022 tail", year: 2022, text: "tail"},
		{in: "y:2020 y:bad", year: 2020, text: "y:bad"},
		{in: "Alpha y:2024 Beta", year: 2024, text: "Alpha Beta"},
	}
	for _, tc := range cases {
		q := ParseQuery(tc.in)
		if q.Text != tc.text {
			t.Errorf("ParseQuery(%q).Text = %q, want %q", tc.in, q.Text, tc.text)
		}
		if tc.year == 0 {
			if q.Date != nil {
				t.Errorf("ParseQuery(%q).Date = %+v, want nil", tc.in, *q.Date)
			}
			continue
		}
		if q.Date == nil {
			t.Errorf("ParseQuery(%q).Date = nil, want %d/%d", tc.in, tc.year, tc.month)
			continue
		}
		if q.Date.Year != tc.year || q.Date.Month != tc.month {
			t.Errorf("ParseQuery(%q).Date = %+v, want %d/%d", tc.in, *q.Date, tc.year, tc.month)
		}
	}
}

// seedAt creates a note with the clock set to at.
func seedAt(t *testing.T, db *DB, clock *fakeClock, at time.Time, title, body string) int64 {
	t.Helper()
	clock.Set(at)
	id, err := db.Create(context.Background(), title, body)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestSearch_EmptyStore(t *testing.T) {
	db := testDB(t)
	res, err := db.Search(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res == nil || len(res) != 0 {
		t.Errorf("results = %v, want empty slice", res)
	}
}

func TestSearch_AllNewestFirst(t *testing.T) {
	db, clock := testDBWithClock(t, t0)
	a := seedAt(t, db, clock, t0, "a", "first")
	b := seedAt(t, db, clock, t0.Add(time.Hour), "b", "second")
	c := seedAt(t, db, clock, t0.Add(2*time.Hour), "c", "third")

	res, err := db.Search(context.Background(), "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 3 || res[0].ID != c || res[1].ID != b || res[2].ID != a {
		t.Errorf("order = %+v", res)
	}

	res, _ = db.Search(context.Background(), "", 2)
	if len(res) != 2 || res[0].ID != c {
		t.Errorf("limit not respected: %+v", res)
	}
}

func TestSearch_TextCaseInsensitive(t *testing.T) {
	db, clock := testDBWithClock(t, t0)
	inTitle := seedAt(t, db, clock, t0, "Alpha plan", "nothing")
	inBody := seedAt(t, db, clock, t0.Add(time.Minute), "other", "the ALPHA release")
	_ = seedAt(t, db, clock, t0.Add(2*time.Minute), "miss", "beta only")

	res, err := db.Search(context.Background(), "alpha", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].ID != inBody || res[1].ID != inTitle {
		t.Errorf("results = %+v", res)
	}
}

func TestSearch_UnicodeCaseFolding(t *testing.T) {
	db, clock := testDBWithClock(t, t0)
	id := seedAt(t, db, clock, t0, "Über", "Ärger im Büro")

	res, _ := db.Search(context.Background(), "ärger", 10)
	if len(res) != 1 || res[0].ID != id {
		t.Errorf("results = %+v", res)
	}
	res, _ = db.Search(context.Background(), "üBER", 10)
	if len(res) != 1 {
		t.Errorf("title match: results = %+v", res)
	}
}

func TestSearch_LikeMetacharactersAreLiteral(t *testing.T) {
	db, clock := testDBWithClock(t, t0)
	hit := seedAt(t, db, clock, t0, "discount", "save 50% today")
	_ = seedAt(t, db, clock, t0.Add(time.Minute), "other", "save 500 today")
	under := seedAt(t, db, clock, t0.Add(2*time.Minute), "snake", "my_var")
	_ = seedAt(t, db, clock, t0.Add(3*time.Minute), "camel", "myXvar")

	res, _ := db.Search(context.Background(), "50%", 10)
	if len(res) != 1 || res[0].ID != hit {
		t.Errorf("percent: results = %+v", res)
	}
	res, _ = db.Search(context.Background(), "my_var", 10)
	if len(res) != 1 || res[0].ID != under {
		t.Errorf("underscore: results = %+v", res)
	}
}

func TestSearch_YearFilter(t *testing.T) {
	db, clock := testDBWithClock(t, t0)
	old := seedAt(t, db, clock, time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC), "old", "x")
	jan := seedAt(t, db, clock, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "jan", "y")
	dec := seedAt(t, db, clock, time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC), "dec", "z")
	_ = seedAt(t, db, clock, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "new", "w")

	res, err := db.Search(context.Background(), "y:2024", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].ID != dec || res[1].ID != jan {
		t.Errorf("results = %+v", res)
	}

	res, _ = db.Search(context.Background(), "y:2024", 1)
	if len(res) != 1 || res[0].ID != dec {
		t.Errorf("limit: results = %+v", res)
	}

	res, _ = db.Search(context.Background(), "year:2023", 10)
	if len(res) != 1 || res[0].ID != old {
		t.Errorf("2023: results = %+v", res)
	}
}

func TestSearch_MonthFilterWithText(t *testing.T) {
	db, clock := testDBWithClock(t, t0)
	march := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	hit := seedAt(t, db, clock, march, "Project Alpha", "kickoff")
	_ = seedAt(t, db, clock, march.Add(time.Hour), "unrelated", "beta")
	_ = seedAt(t, db, clock, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "alpha april", "x")
	_ = seedAt(t, db, clock, time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC), "alpha last year", "x")

	res, err := db.Search(context.Background(), "m:03/24 alpha", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].ID != hit {
		t.Errorf("results = %+v", res)
	}
}

func TestSearch_MonthFilterOnly(t *testing.T) {
	db, clock := testDBWithClock(t, t0)
	a := seedAt(t, db, clock, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "a", "x")
	b := seedAt(t, db, clock, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), "b", "y")
	_ = seedAt(t, db, clock, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), "c", "z")

	res, _ := db.Search(context.Background(), "month:3/2024", 10)
	if len(res) != 2 || res[0].ID != b || res[1].ID != a {
		t.Errorf("results = %+v", res)
	}
}

func TestSearch_PreviewAndWordCount(t *testing.T) {
	db, clock := testDBWithClock(t, t0)
	body := strings.Repeat("é", 150) + " two\n\tthree   four"
	_ = seedAt(t, db, clock, t0, "long", body)

	res, _ := db.Search(context.Background(), "", 10)
	if len(res) != 1 {
		t.Fatalf("results = %+v", res)
	}
	if got := []rune(res[0].BodyPreview); len(got) != 100 {
		t.Errorf("preview runes = %d, want 100", len(got))
	}
	if res[0].BodyPreview != strings.Repeat("é", 100) {
		t.Errorf("preview = %q", res[0].BodyPreview)
	}
	if res[0].WordCount != 4 {
		t.Errorf("word count = %d, want 4", res[0].WordCount)
	}
	if !res[0].CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v", res[0].CreatedAt)
	}
}

func TestSearch_LimitBounds(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.Seed(ctx, DefaultSearchLimit+5); err != nil {
		t.Fatal(err)
	}

	res, err := db.Search(ctx, "sample", 0)
	if err != nil || len(res) != 0 {
		t.Errorf("limit 0: len = %d, err = %v, want no rows", len(res), err)
	}
	if res == nil {
		t.Error("limit 0 should return an empty slice, not nil")
	}
	res, _ = db.Search(ctx, "sample", -1)
	if len(res) != DefaultSearchLimit {
		t.Errorf("negative limit: len = %d, want %d", len(res), DefaultSearchLimit)
	}
	res, _ = db.Search(ctx, "sample", DefaultSearchLimit+5)
	if len(res) != DefaultSearchLimit+5 {
		t.Errorf("large limit: len = %d, want %d", len(res), DefaultSearchLimit+5)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 2); got != "hé" {
		t.Errorf("got %q", got)
	}
	if got := truncateRunes("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := truncateRunes("abc", 0); got != "" {
		t.Errorf("got %q", got)
	}
}
