package chunk

import (
	"fmt"

	"github.com/kazmiyai/favuls/internal/domain"
)

// The persisted envelope is a fixed, pre-allocated key set: scalar
// metadata keys, 32 group slots and 400 URL slots. Slot keys are
// positional, not content-addressed: a record's slot can change across
// saves. Slot 0 of the group family is reserved for the default group.

const (
	// KeySchemaVersion holds the persisted format version.
	KeySchemaVersion = "schemaVersion"
	// KeyGroupCount is the live-count marker for the group family.
	KeyGroupCount = "groupCount"
	// KeyURLCount is the live-count marker for the URL family.
	KeyURLCount = "urlCount"
	// KeyPreferences holds user preferences.
	KeyPreferences = "preferences"
	// KeyTheme holds the cosmetic theme.
	KeyTheme = "theme"

	// KeyLegacyGroups is the single-aggregate legacy group key (format 1).
	KeyLegacyGroups = "groups"
	// KeyLegacyURLs is the single-aggregate legacy URL key (format 1).
	KeyLegacyURLs = "urls"

	groupSlotPrefix     = "group"
	urlSlotPrefix       = "url"
	legacyGroupURLsName = "urls" // legacy per-group keys are "urls0".."urls31" (format 2)
)

// GroupSlotKey returns the key of group slot i (0..31).
func GroupSlotKey(i int) string {
	return fmt.Sprintf("%s%d", groupSlotPrefix, i)
}

// URLSlotKey returns the key of URL slot i (0..399).
func URLSlotKey(i int) string {
	return fmt.Sprintf("%s%d", urlSlotPrefix, i)
}

// LegacyGroupURLsKey returns the legacy per-group URL key for group slot i.
func LegacyGroupURLsKey(i int) string {
	return fmt.Sprintf("%s%d", legacyGroupURLsName, i)
}

// MetadataKeys are the scalar keys read and written alongside the chunk
// families.
func MetadataKeys() []string {
	return []string{KeySchemaVersion, KeyGroupCount, KeyURLCount, KeyPreferences, KeyTheme}
}

// LegacyKeys enumerates every key belonging to a superseded format. Saves
// remove them all: the format upgrade is one-way.
func LegacyKeys() []string {
	keys := make([]string, 0, domain.MaxGroups+2)
	keys = append(keys, KeyLegacyGroups, KeyLegacyURLs)
	for i := 0; i < domain.MaxGroups; i++ {
		keys = append(keys, LegacyGroupURLsKey(i))
	}
	return keys
}

// AllKeys enumerates the full possible key space: metadata, every chunk
// slot of both families, and every legacy key. Load fetches them all in
// one batched read because per-call overhead on the backing store is what
// dominates, not payload size.
func AllKeys() []string {
	keys := make([]string, 0, len(MetadataKeys())+domain.MaxGroups+domain.MaxURLs+domain.MaxGroups+2)
	keys = append(keys, MetadataKeys()...)
	for i := 0; i < domain.MaxGroups; i++ {
		keys = append(keys, GroupSlotKey(i))
	}
	for i := 0; i < domain.MaxURLs; i++ {
		keys = append(keys, URLSlotKey(i))
	}
	keys = append(keys, LegacyKeys()...)
	return keys
}
