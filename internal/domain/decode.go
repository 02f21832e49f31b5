package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stored records predate this implementation by several schema shapes, so
// the decode boundary is deliberately tolerant: timestamps may be RFC 3339
// strings (current) or epoch milliseconds (legacy), and derived fields may
// be absent. Everything converges into the canonical model types here;
// nothing downstream ever inspects raw storage blobs.

// storedTime accepts both RFC 3339 strings and epoch-millisecond numbers.
type storedTime struct {
	time.Time
}

func (t *storedTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" || string(b) == `""` {
		t.Time = time.Time{}
		return nil
	}
	if b[0] == '"' {
		return t.Time.UnmarshalJSON(b)
	}
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

type storedURL struct {
	ID           string     `json:"id"`
	URL          string     `json:"url"`
	Title        string     `json:"title"`
	GroupID      string     `json:"groupId"`
	Domain       string     `json:"domain"`
	Favicon      string     `json:"favicon"`
	Tags         []string   `json:"tags"`
	Order        float64    `json:"order"`
	Timestamp    storedTime `json:"timestamp"`
	Created      storedTime `json:"created"`
	LastModified storedTime `json:"lastModified"`
}

type storedGroup struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	IsDefault    bool       `json:"isDefault"`
	Protected    bool       `json:"protected"`
	Color        string     `json:"color"`
	Description  string     `json:"description"`
	URLCount     int        `json:"urlCount"`
	Order        float64    `json:"order"`
	Created      storedTime `json:"created"`
	LastModified storedTime `json:"lastModified"`
}

// decodeStoredURL parses a raw blob without applying any fallbacks, so
// callers can still see which fields the record actually carried. Absent
// id or address is a decode error, not a repairable condition.
func decodeStoredURL(data []byte) (storedURL, error) {
	var s storedURL
	if err := json.Unmarshal(data, &s); err != nil {
		return storedURL{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if s.ID == "" {
		return storedURL{}, fmt.Errorf("%w: url record missing id", ErrDecode)
	}
	if s.URL == "" {
		return storedURL{}, fmt.Errorf("%w: url record %s missing address", ErrDecode, s.ID)
	}
	return s, nil
}

// DecodeURL promotes a stored blob to a canonical URL record. Absent
// derived fields (domain, favicon) are recomputed.
func DecodeURL(data []byte) (*URL, error) {
	s, err := decodeStoredURL(data)
	if err != nil {
		return nil, err
	}
	return promoteURL(s), nil
}

// promoteURL converts a stored record to the canonical model, filling in
// everything the storage load path tolerates being absent.
func promoteURL(s storedURL) *URL {
	u := &URL{
		ID:           s.ID,
		URL:          s.URL,
		Title:        s.Title,
		GroupID:      s.GroupID,
		Domain:       s.Domain,
		Favicon:      s.Favicon,
		Tags:         s.Tags,
		Order:        s.Order,
		Timestamp:    s.Timestamp.Time,
		Created:      s.Created.Time,
		LastModified: s.LastModified.Time,
	}
	if u.Title == "" {
		u.Title = u.URL
	}
	if u.Domain == "" {
		u.Domain = DeriveDomain(u.URL)
	}
	if u.Favicon == "" {
		u.Favicon = FaviconURL(u.Domain)
	}
	if u.Created.IsZero() {
		u.Created = u.Timestamp
	}
	if u.LastModified.IsZero() {
		u.LastModified = u.Created
	}
	return u
}

// decodeStoredGroup parses a raw blob without applying any fallbacks.
func decodeStoredGroup(data []byte) (storedGroup, error) {
	var s storedGroup
	if err := json.Unmarshal(data, &s); err != nil {
		return storedGroup{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if s.ID == "" {
		return storedGroup{}, fmt.Errorf("%w: group record missing id", ErrDecode)
	}
	return s, nil
}

// DecodeGroup promotes a stored blob to a canonical Group record.
func DecodeGroup(data []byte) (*Group, error) {
	s, err := decodeStoredGroup(data)
	if err != nil {
		return nil, err
	}
	return promoteGroup(s), nil
}

// promoteGroup converts a stored record to the canonical model.
func promoteGroup(s storedGroup) *Group {
	g := &Group{
		ID:           s.ID,
		Name:         s.Name,
		IsDefault:    s.IsDefault,
		Protected:    s.Protected,
		Color:        s.Color,
		Description:  s.Description,
		URLCount:     s.URLCount,
		Order:        s.Order,
		Created:      s.Created.Time,
		LastModified: s.LastModified.Time,
	}
	if g.Name == "" {
		g.Name = g.ID
	}
	if g.Color == "" {
		g.Color = DefaultGroupColor
	}
	if g.LastModified.IsZero() {
		g.LastModified = g.Created
	}
	return g
}

// DecodeURLList decodes a legacy aggregate array of URL records, skipping
// entries that do not decode. Used by the legacy storage formats only.
func DecodeURLList(data []byte) ([]*URL, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	urls := make([]*URL, 0, len(raws))
	for _, raw := range raws {
		u, err := DecodeURL(raw)
		if err != nil {
			continue
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// DecodeGroupList decodes a legacy aggregate array of group records,
// skipping entries that do not decode.
func DecodeGroupList(data []byte) ([]*Group, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	groups := make([]*Group, 0, len(raws))
	for _, raw := range raws {
		g, err := DecodeGroup(raw)
		if err != nil {
			continue
		}
		groups = append(groups, g)
	}
	return groups, nil
}
