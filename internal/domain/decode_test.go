package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeURLEpochMillisTimestamp(t *testing.T) {
	raw := []byte(`{"id":"u1","url":"https://example.com","created":1704067200000}`)

	u, err := DecodeURL(raw)
	if err != nil {
		t.Fatalf("DecodeURL() error = %v", err)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !u.Created.Equal(want) {
		t.Errorf("Created = %v, want %v", u.Created, want)
	}
	if !u.LastModified.Equal(want) {
		t.Errorf("LastModified should fall back to Created, got %v", u.LastModified)
	}
}

func TestDecodeURLRFC3339Timestamp(t *testing.T) {
	raw := []byte(`{"id":"u1","url":"https://example.com","created":"2024-01-01T00:00:00Z"}`)

	u, err := DecodeURL(raw)
	if err != nil {
		t.Fatalf("DecodeURL() error = %v", err)
	}
	if u.Created.Year() != 2024 {
		t.Errorf("Created = %v, want 2024", u.Created)
	}
}

func TestDecodeURLRecomputesDerivedFields(t *testing.T) {
	raw := []byte(`{"id":"u1","url":"https://docs.example.com/page"}`)

	u, err := DecodeURL(raw)
	if err != nil {
		t.Fatalf("DecodeURL() error = %v", err)
	}
	if u.Title != "https://docs.example.com/page" {
		t.Errorf("missing title should fall back to address, got %q", u.Title)
	}
	if u.Domain != "docs.example.com" {
		t.Errorf("Domain = %q, want recomputed", u.Domain)
	}
	if u.Favicon == "" {
		t.Error("Favicon not recomputed")
	}
}

func TestDecodeURLRejectsMissingEssentials(t *testing.T) {
	for _, raw := range []string{
		`{"url":"https://example.com"}`,
		`{"id":"u1"}`,
		`not json`,
	} {
		if _, err := DecodeURL([]byte(raw)); !errors.Is(err, ErrDecode) {
			t.Errorf("DecodeURL(%s) error = %v, want ErrDecode", raw, err)
		}
	}
}

func TestDecodeGroupDefaults(t *testing.T) {
	g, err := DecodeGroup([]byte(`{"id":"g1"}`))
	if err != nil {
		t.Fatalf("DecodeGroup() error = %v", err)
	}
	if g.Name != "g1" {
		t.Errorf("missing name should fall back to id, got %q", g.Name)
	}
	if g.Color != DefaultGroupColor {
		t.Errorf("Color = %q, want default", g.Color)
	}
}

func TestDecodeURLListSkipsBadEntries(t *testing.T) {
	raw := []byte(`[{"id":"u1","url":"https://example.com"},{"broken":true},{"id":"u2","url":"https://example.org"}]`)

	urls, err := DecodeURLList(raw)
	if err != nil {
		t.Fatalf("DecodeURLList() error = %v", err)
	}
	if len(urls) != 2 {
		t.Errorf("len(urls) = %d, want 2 (bad entry skipped)", len(urls))
	}
}

func TestDecodeGroupListRejectsNonArray(t *testing.T) {
	if _, err := DecodeGroupList([]byte(`{"id":"g1"}`)); !errors.Is(err, ErrDecode) {
		t.Errorf("DecodeGroupList() error = %v, want ErrDecode", err)
	}
}
