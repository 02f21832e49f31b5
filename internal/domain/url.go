package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxURLs is the hard capacity ceiling for live URL records.
	// It is baked into the persisted chunk layout and cannot grow
	// without a schema change.
	MaxURLs = 400

	// MaxTitleLen is the display-title length convention.
	MaxTitleLen = 200
)

// URL represents one saved bookmark.
//
// A URL is uniquely identified by its ID for its whole lifetime, but the
// merge identity used by import is the (address, title) pair, so two
// independently captured records for the same link collapse into one.
type URL struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier, assigned at creation.
	ID string `json:"id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// URL is the absolute http/https address.
	URL string `json:"url"`

	// Title is the display text. Falls back to the address when the
	// capture source provides none.
	Title string `json:"title"`

	// GroupID references the owning group. It must always resolve to a
	// stored group; the integrity validator rewrites orphans to the
	// default group.
	GroupID string `json:"groupId"`

	// Domain is derived from URL and used for favicon lookup.
	Domain string `json:"domain"`

	// Favicon is a derived display hint, not authoritative.
	Favicon string `json:"favicon,omitempty"`

	// Tags is an unordered set of labels. Currently unused by business
	// logic but carried through storage and import.
	Tags []string `json:"tags,omitempty"`

	// ─────────────────────────────
	// Ordering
	// ─────────────────────────────

	// Order sorts the URL within its group. It may transiently hold a
	// fractional value right after a drag insertion; renormalization
	// collapses it back to a dense integer before anything else runs.
	Order float64 `json:"order"`

	// ─────────────────────────────
	// Timestamps
	// ─────────────────────────────

	// Timestamp is the capture time.
	Timestamp time.Time `json:"timestamp"`

	// Created is the record creation time.
	Created time.Time `json:"created"`

	// LastModified is bumped on every mutation. Import merge resolves
	// collisions with it.
	LastModified time.Time `json:"lastModified"`
}

// NewURL builds a bookmark record for the given address. The address must
// be absolute http/https. An empty title falls back to the address.
func NewURL(address, title, groupID string) (*URL, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = address
	}
	if len(title) > MaxTitleLen {
		title = title[:MaxTitleLen]
	}
	if groupID == "" {
		groupID = DefaultGroupID
	}

	domain := DeriveDomain(address)
	now := time.Now().UTC()

	return &URL{
		ID:           uuid.NewString(),
		URL:          address,
		Title:        title,
		GroupID:      groupID,
		Domain:       domain,
		Favicon:      FaviconURL(domain),
		Timestamp:    now,
		Created:      now,
		LastModified: now,
	}, nil
}

// Touch bumps LastModified. Call it on every mutation.
func (u *URL) Touch() {
	u.LastModified = time.Now().UTC()
}

// Validate checks field-level invariants. Failures are advisory: the
// integrity pass logs them but keeps the record.
func (u *URL) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("url record: %w: empty id", ErrInvalidRecord)
	}
	if strings.TrimSpace(u.Title) == "" {
		return fmt.Errorf("url record %s: %w: empty title", u.ID, ErrInvalidRecord)
	}
	if err := ValidateAddress(u.URL); err != nil {
		return fmt.Errorf("url record %s: %w", u.ID, err)
	}
	return nil
}

// Clone returns a copy safe to hand outside the session lock.
func (u *URL) Clone() *URL {
	c := *u
	if u.Tags != nil {
		c.Tags = append([]string(nil), u.Tags...)
	}
	return &c
}

// ValidateAddress rejects anything that is not an absolute http/https URL.
func ValidateAddress(address string) error {
	parsed, err := url.Parse(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if (scheme != "http" && scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	return nil
}

// NormalizeAddress lowercases the scheme and host of an address so that
// casing differences do not create duplicate bookmarks. The path and query
// are kept verbatim (they are case-sensitive on many servers).
func NormalizeAddress(address string) string {
	parsed, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		return strings.TrimSpace(address)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	return parsed.String()
}

// DeriveDomain extracts the host part of an address for favicon lookup.
func DeriveDomain(address string) string {
	parsed, err := url.Parse(address)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// FaviconURL returns the favicon lookup hint for a domain.
func FaviconURL(domain string) string {
	if domain == "" {
		return ""
	}
	return "https://www.google.com/s2/favicons?domain=" + domain
}
