package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// SnapshotVersion is the export file format version.
	SnapshotVersion = "1.0"

	// MaxSnapshotBytes caps the accepted import file size.
	MaxSnapshotBytes = 1 << 20 // 1MB

	// SnapshotSource tags exports produced by this system.
	SnapshotSource = "favuls"
)

// SnapshotMetadata describes an export file.
type SnapshotMetadata struct {
	Version     string    `json:"version"`
	ExportDate  time.Time `json:"exportDate"`
	Source      string    `json:"source"`
	TotalGroups int       `json:"totalGroups"`
	TotalUrls   int       `json:"totalUrls"`
}

// Snapshot is the import/export envelope: the full (groups, urls) pair
// plus metadata.
type Snapshot struct {
	Metadata SnapshotMetadata `json:"metadata"`
	Groups   []*Group         `json:"groups"`
	Urls     []*URL           `json:"urls"`
}

// ExportSnapshot builds the envelope for the current state.
func ExportSnapshot(groups []*Group, urls []*URL, now time.Time) *Snapshot {
	return &Snapshot{
		Metadata: SnapshotMetadata{
			Version:     SnapshotVersion,
			ExportDate:  now.UTC(),
			Source:      SnapshotSource,
			TotalGroups: len(groups),
			TotalUrls:   len(urls),
		},
		Groups: groups,
		Urls:   urls,
	}
}

// Encode renders the envelope as indented UTF-8 JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// ExportFilename is the backup filename convention:
// favuls-backup-<ISO8601 with ":" and "." replaced by "-">.json
func ExportFilename(now time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(now.UTC().Format(time.RFC3339))
	return fmt.Sprintf("%s-backup-%s.json", SnapshotSource, stamp)
}

// ParseSnapshot decodes and structurally validates an import file. Any
// violation rejects the whole file; no partial import ever happens.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	if len(data) > MaxSnapshotBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidImport, MaxSnapshotBytes)
	}

	var envelope struct {
		Metadata SnapshotMetadata  `json:"metadata"`
		Groups   []json.RawMessage `json:"groups"`
		Urls     []json.RawMessage `json:"urls"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrInvalidImport, err)
	}

	snap := &Snapshot{
		Metadata: envelope.Metadata,
		Groups:   make([]*Group, 0, len(envelope.Groups)),
		Urls:     make([]*URL, 0, len(envelope.Urls)),
	}

	// Imports check the raw stored fields before the tolerant fallbacks
	// run. A record that relies on a fallback (title substituted by the
	// address, name by the id) is acceptable coming out of storage but is
	// an invalid file coming in.
	for i, raw := range envelope.Groups {
		sg, err := decodeStoredGroup(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: group %d: %v", ErrInvalidImport, i, err)
		}
		if strings.TrimSpace(sg.Name) == "" {
			return nil, fmt.Errorf("%w: group %d has no name", ErrInvalidImport, i)
		}
		snap.Groups = append(snap.Groups, promoteGroup(sg))
	}

	for i, raw := range envelope.Urls {
		su, err := decodeStoredURL(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: url %d: %v", ErrInvalidImport, i, err)
		}
		if strings.TrimSpace(su.Title) == "" {
			return nil, fmt.Errorf("%w: url %d has no title", ErrInvalidImport, i)
		}
		if err := ValidateAddress(su.URL); err != nil {
			return nil, fmt.Errorf("%w: url %d: %v", ErrInvalidImport, i, err)
		}
		snap.Urls = append(snap.Urls, promoteURL(su))
	}

	return snap, nil
}
