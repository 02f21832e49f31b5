package domain

import (
	"fmt"
	"time"
)

// ImportMode selects how an import file is reconciled against the live
// store.
type ImportMode string

const (
	// ImportReplace discards the live store and rebuilds it from the
	// file. Destructive: live records absent from the file are lost.
	ImportReplace ImportMode = "replace"

	// ImportMerge reconciles file and live records. Never deletes a live
	// record absent from the file.
	ImportMerge ImportMode = "merge"
)

// ParseImportMode validates a user-supplied mode string.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case ImportReplace, ImportMerge:
		return ImportMode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown import mode %q", ErrInvalidImport, s)
	}
}

// ImportResult summarizes an applied import. Capacity overflow during
// import truncates silently but is surfaced here as warnings; this is a
// deliberately more lenient policy than interactive creation, which
// refuses outright.
type ImportResult struct {
	Mode            ImportMode `json:"mode"`
	GroupsImported  int        `json:"groupsImported"`
	URLsImported    int        `json:"urlsImported"`
	GroupsTruncated int        `json:"groupsTruncated"`
	URLsTruncated   int        `json:"urlsTruncated"`
	Warnings        []string   `json:"warnings,omitempty"`
}

// Replace rebuilds the whole store from the snapshot, subject to the hard
// caps: the default group plus the first 31 others, and the first 400
// URLs. The default group is re-synthesized when the file lacks one.
func Replace(snap *Snapshot) ([]*Group, []*URL, *ImportResult) {
	res := &ImportResult{Mode: ImportReplace}

	groups := capGroups(snap.Groups, res)
	urls := capURLs(snap.Urls, res)

	res.GroupsImported = len(groups)
	res.URLsImported = len(urls)
	return groups, urls, res
}

// Merge reconciles the snapshot against the live pair. Groups merge by id;
// URLs merge by the (address, title) identity key, independent of id, so
// two independently captured records for the same link collapse. On
// collision the strictly newer record wins, which makes merging the same
// file twice a no-op.
func Merge(liveGroups []*Group, liveURLs []*URL, snap *Snapshot) ([]*Group, []*URL, *ImportResult) {
	res := &ImportResult{Mode: ImportMerge}

	groups := append([]*Group(nil), liveGroups...)
	byID := make(map[string]int, len(groups))
	for i, g := range groups {
		byID[g.ID] = i
	}

	for _, in := range snap.Groups {
		if i, ok := byID[in.ID]; ok {
			if newerGroup(in, groups[i]) {
				groups[i] = in
				res.GroupsImported++
			}
			continue
		}
		if len(groups) >= MaxGroups {
			res.GroupsTruncated++
			continue
		}
		byID[in.ID] = len(groups)
		groups = append(groups, in)
		res.GroupsImported++
	}

	urls := append([]*URL(nil), liveURLs...)
	byKey := make(map[string]int, len(urls))
	for i, u := range urls {
		byKey[mergeKey(u)] = i
	}

	for _, in := range snap.Urls {
		key := mergeKey(in)
		if i, ok := byKey[key]; ok {
			if newerURL(in, urls[i]) {
				urls[i] = in
				res.URLsImported++
			}
			continue
		}
		if len(urls) >= MaxURLs {
			res.URLsTruncated++
			continue
		}
		byKey[key] = len(urls)
		urls = append(urls, in)
		res.URLsImported++
	}

	appendTruncationWarnings(res)
	return groups, urls, res
}

// mergeKey is the composite identity of a bookmark for merge purposes:
// normalized address plus title.
func mergeKey(u *URL) string {
	return NormalizeAddress(u.URL) + "\x00" + u.Title
}

// newerURL reports whether a strictly postdates b. Ties keep the live
// record, which is what makes merge idempotent.
func newerURL(a, b *URL) bool {
	return effectiveURLTime(a).After(effectiveURLTime(b))
}

func newerGroup(a, b *Group) bool {
	at, bt := a.LastModified, b.LastModified
	if at.IsZero() {
		at = a.Created
	}
	if bt.IsZero() {
		bt = b.Created
	}
	return at.After(bt)
}

func effectiveURLTime(u *URL) time.Time {
	if !u.LastModified.IsZero() {
		return u.LastModified
	}
	return u.Created
}

// capGroups keeps the default group plus the first 31 others, counting the
// rest as truncated. A missing default group is synthesized up front.
func capGroups(in []*Group, res *ImportResult) []*Group {
	var def *Group
	others := make([]*Group, 0, len(in))
	for _, g := range in {
		if g.ID == DefaultGroupID && def == nil {
			def = g
			continue
		}
		others = append(others, g)
	}
	if def == nil {
		def = DefaultGroup()
	}
	if len(others) > MaxGroups-1 {
		res.GroupsTruncated = len(others) - (MaxGroups - 1)
		others = others[:MaxGroups-1]
	}
	appendTruncationWarnings(res)
	return append([]*Group{def}, others...)
}

// capURLs keeps the first 400 URLs, deterministic earliest-wins.
func capURLs(in []*URL, res *ImportResult) []*URL {
	if len(in) > MaxURLs {
		res.URLsTruncated = len(in) - MaxURLs
		in = in[:MaxURLs]
	}
	appendTruncationWarnings(res)
	return append([]*URL(nil), in...)
}

func appendTruncationWarnings(res *ImportResult) {
	if res.GroupsTruncated > 0 && !hasWarningPrefix(res, "group capacity") {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("group capacity reached: %d imported groups were dropped (max %d)", res.GroupsTruncated, MaxGroups))
	}
	if res.URLsTruncated > 0 && !hasWarningPrefix(res, "bookmark capacity") {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("bookmark capacity reached: %d imported bookmarks were dropped (max %d)", res.URLsTruncated, MaxURLs))
	}
}

func hasWarningPrefix(res *ImportResult, prefix string) bool {
	for _, w := range res.Warnings {
		if len(w) >= len(prefix) && w[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
