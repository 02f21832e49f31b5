package chunk

// Format is the closed set of persisted schema shapes. Detection happens
// once at load; one decoder per variant converges everything into the
// canonical in-memory shape, and nothing outside this package ever sees a
// format.
type Format int

const (
	// FormatEmpty means the family has never been written.
	FormatEmpty Format = iota
	// FormatLegacyAggregate is the oldest shape: one array under a fixed
	// key ("groups" / "urls").
	FormatLegacyAggregate
	// FormatLegacyPerGroup is the interim URL shape: one array per group
	// slot under "urls0".."urls31".
	FormatLegacyPerGroup
	// FormatChunked is the current shape: one record per fixed slot key
	// plus a count marker.
	FormatChunked
)

func (f Format) String() string {
	switch f {
	case FormatEmpty:
		return "empty"
	case FormatLegacyAggregate:
		return "legacy-aggregate"
	case FormatLegacyPerGroup:
		return "legacy-per-group"
	case FormatChunked:
		return "chunked"
	default:
		return "unknown"
	}
}

// Legacy reports whether the format needs a migrating rewrite on the next
// save.
func (f Format) Legacy() bool {
	return f == FormatLegacyAggregate || f == FormatLegacyPerGroup
}

// SchemaVersion numbers persisted in KeySchemaVersion.
const (
	SchemaLegacyAggregate = 1
	SchemaLegacyPerGroup  = 2
	SchemaChunked         = 3
)

// LoadInfo reports what shapes a load found. The two families migrate
// independently because historical versions upgraded them at different
// times.
type LoadInfo struct {
	GroupFormat Format
	URLFormat   Format
}

// Legacy reports whether either family still needs migration.
func (li LoadInfo) Legacy() bool {
	return li.GroupFormat.Legacy() || li.URLFormat.Legacy()
}
