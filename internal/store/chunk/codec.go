package chunk

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kazmiyai/favuls/internal/domain"
	"github.com/kazmiyai/favuls/internal/logger"
	"github.com/kazmiyai/favuls/internal/store/kv"
)

// Codec translates between the in-memory (groups, urls, meta) triple and
// the fixed-chunk persisted envelope, transparently across the historical
// formats. Format detection never leaks out of this package: callers get
// canonical records and a LoadInfo, nothing else.
type Codec struct {
	store kv.Store
	log   logger.Logger
}

// Snapshot is the canonical in-memory shape of the whole store.
type Snapshot struct {
	Groups []*domain.Group
	URLs   []*domain.URL
	Meta   Meta
}

func New(store kv.Store, log logger.Logger) *Codec {
	return &Codec{store: store, log: log}
}

// Load reads the full key space in one batched get, detects each family's
// format, and decodes into canonical records. Absent slots are skipped,
// never an error; corrupt slots are logged and skipped. Callers must run
// the integrity validator before trusting group references or
// default-group presence.
func (c *Codec) Load(ctx context.Context) (*Snapshot, LoadInfo, error) {
	vals, err := c.store.Get(ctx, AllKeys())
	if err != nil {
		return nil, LoadInfo{}, fmt.Errorf("failed to read store: %w", err)
	}

	info := LoadInfo{
		GroupFormat: c.detectGroupFormat(vals),
		URLFormat:   c.detectURLFormat(vals),
	}

	snap := &Snapshot{Meta: c.decodeMeta(vals)}
	snap.Groups = c.decodeGroups(vals, info.GroupFormat)
	snap.URLs = c.decodeURLs(vals, info.URLFormat)

	c.log.Info("store loaded",
		logger.String("group_format", info.GroupFormat.String()),
		logger.String("url_format", info.URLFormat.String()),
		logger.Int("groups", len(snap.Groups)),
		logger.Int("urls", len(snap.URLs)))

	return snap, info, nil
}

// Save persists the whole snapshot in the current chunked format, removes
// every legacy key, and explicitly clears slots no longer populated (the
// store keeps previously written slots until removed; omission is not
// enough). All-or-nothing: a quota failure writes nothing.
func (c *Codec) Save(ctx context.Context, snap *Snapshot) error {
	writes := make(map[string]string)

	groupCount, err := c.encodeGroups(writes, snap.Groups)
	if err != nil {
		return err
	}
	urlCount, err := c.encodeURLs(writes, snap.URLs)
	if err != nil {
		return err
	}
	if err := c.encodeMeta(writes, snap.Meta); err != nil {
		return err
	}
	writes[KeyGroupCount] = strconv.Itoa(groupCount)
	writes[KeyURLCount] = strconv.Itoa(urlCount)

	// Per-item overflow is a systemic encoding bug (each record must
	// independently fit one slot), so it surfaces as ErrItemTooLarge and
	// must never be presented as a user-facing quota message.
	for k, v := range writes {
		if len(k)+len(v) > kv.QuotaBytesPerItem {
			return fmt.Errorf("%w: key %s holds %d bytes", kv.ErrItemTooLarge, k, len(k)+len(v))
		}
	}

	stale, err := c.staleSlotKeys(ctx, groupCount, urlCount)
	if err != nil {
		return err
	}

	if err := c.store.Set(ctx, writes); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}

	removals := append(LegacyKeys(), stale...)
	if err := c.store.Remove(ctx, removals); err != nil {
		return fmt.Errorf("failed to clear stale keys: %w", err)
	}

	return nil
}

// Usage reports the bytes in use on the backing store.
func (c *Codec) Usage(ctx context.Context) (int, error) {
	return c.store.Usage(ctx)
}

// Ping reports backing-store reachability.
func (c *Codec) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// ─────────────────────────────────────────────────────────────────
// Format detection
// ─────────────────────────────────────────────────────────────────

// detectGroupFormat: a count marker or slot 0 means chunked; else the
// aggregate key means legacy; else the family is empty.
func (c *Codec) detectGroupFormat(vals map[string]string) Format {
	if _, ok := vals[KeyGroupCount]; ok {
		return FormatChunked
	}
	if _, ok := vals[GroupSlotKey(0)]; ok {
		return FormatChunked
	}
	if _, ok := vals[KeyLegacyGroups]; ok {
		return FormatLegacyAggregate
	}
	return FormatEmpty
}

// detectURLFormat: chunked beats per-group beats aggregate. The per-group
// shape postdates the aggregate one, so when both linger the newer wins.
func (c *Codec) detectURLFormat(vals map[string]string) Format {
	if _, ok := vals[KeyURLCount]; ok {
		return FormatChunked
	}
	if _, ok := vals[URLSlotKey(0)]; ok {
		return FormatChunked
	}
	for i := 0; i < domain.MaxGroups; i++ {
		if _, ok := vals[LegacyGroupURLsKey(i)]; ok {
			return FormatLegacyPerGroup
		}
	}
	if _, ok := vals[KeyLegacyURLs]; ok {
		return FormatLegacyAggregate
	}
	return FormatEmpty
}

// ─────────────────────────────────────────────────────────────────
// Decoders (one per format variant)
// ─────────────────────────────────────────────────────────────────

func (c *Codec) decodeGroups(vals map[string]string, f Format) []*domain.Group {
	switch f {
	case FormatChunked:
		count := parseCount(vals[KeyGroupCount], domain.MaxGroups)
		groups := make([]*domain.Group, 0, count)
		for i := 0; i < count; i++ {
			raw, ok := vals[GroupSlotKey(i)]
			if !ok {
				continue
			}
			g, err := domain.DecodeGroup([]byte(raw))
			if err != nil {
				c.log.Warn("skipping corrupt group slot",
					logger.Int("slot", i), logger.Error(err))
				continue
			}
			groups = append(groups, g)
		}
		return groups

	case FormatLegacyAggregate:
		groups, err := domain.DecodeGroupList([]byte(vals[KeyLegacyGroups]))
		if err != nil {
			c.log.Warn("skipping corrupt legacy group aggregate", logger.Error(err))
			return nil
		}
		return groups

	default:
		return nil
	}
}

func (c *Codec) decodeURLs(vals map[string]string, f Format) []*domain.URL {
	switch f {
	case FormatChunked:
		count := parseCount(vals[KeyURLCount], domain.MaxURLs)
		urls := make([]*domain.URL, 0, count)
		for i := 0; i < count; i++ {
			raw, ok := vals[URLSlotKey(i)]
			if !ok {
				continue
			}
			u, err := domain.DecodeURL([]byte(raw))
			if err != nil {
				c.log.Warn("skipping corrupt url slot",
					logger.Int("slot", i), logger.Error(err))
				continue
			}
			urls = append(urls, u)
		}
		return urls

	case FormatLegacyPerGroup:
		// Best-effort: the per-group migration path never reliably
		// completed historically, so this decoder takes the slow full
		// read and relies on the next save to rewrite everything.
		var urls []*domain.URL
		for i := 0; i < domain.MaxGroups; i++ {
			raw, ok := vals[LegacyGroupURLsKey(i)]
			if !ok {
				continue
			}
			list, err := domain.DecodeURLList([]byte(raw))
			if err != nil {
				c.log.Warn("skipping corrupt legacy per-group urls",
					logger.Int("slot", i), logger.Error(err))
				continue
			}
			urls = append(urls, list...)
		}
		return urls

	case FormatLegacyAggregate:
		urls, err := domain.DecodeURLList([]byte(vals[KeyLegacyURLs]))
		if err != nil {
			c.log.Warn("skipping corrupt legacy url aggregate", logger.Error(err))
			return nil
		}
		return urls

	default:
		return nil
	}
}

func (c *Codec) decodeMeta(vals map[string]string) Meta {
	meta := DefaultMeta()

	if raw, ok := vals[KeySchemaVersion]; ok {
		if v, err := strconv.Atoi(raw); err == nil {
			meta.SchemaVersion = v
		}
	}
	if raw, ok := vals[KeyPreferences]; ok {
		if err := json.Unmarshal([]byte(raw), &meta.Preferences); err != nil {
			c.log.Warn("preferences blob corrupt, using defaults", logger.Error(err))
			meta.Preferences = DefaultPreferences()
		}
	}
	if raw, ok := vals[KeyTheme]; ok {
		if err := json.Unmarshal([]byte(raw), &meta.Theme); err != nil {
			c.log.Warn("theme blob corrupt, using defaults", logger.Error(err))
			meta.Theme = DefaultTheme()
		}
	}
	return meta
}

// ─────────────────────────────────────────────────────────────────
// Encoders
// ─────────────────────────────────────────────────────────────────

// encodeGroups writes the default group to slot 0 unconditionally and up
// to 31 others to slots 1..31 in their given order. Groups beyond the
// ceiling are silently dropped: a hard capacity ceiling, not an error.
func (c *Codec) encodeGroups(writes map[string]string, groups []*domain.Group) (int, error) {
	var def *domain.Group
	others := make([]*domain.Group, 0, len(groups))
	for _, g := range groups {
		if g.ID == domain.DefaultGroupID && def == nil {
			def = g
			continue
		}
		others = append(others, g)
	}
	if def == nil {
		// Load+repair recreates it anyway, but slot 0 must never be
		// empty in a populated store.
		c.log.Warn("saving without a default group, synthesizing one")
		def = domain.DefaultGroup()
	}

	if len(others) > domain.MaxGroups-1 {
		c.log.Warn("dropping groups beyond capacity",
			logger.Int("dropped", len(others)-(domain.MaxGroups-1)))
		others = others[:domain.MaxGroups-1]
	}

	if err := encodeSlot(writes, GroupSlotKey(0), def); err != nil {
		return 0, err
	}
	for i, g := range others {
		if err := encodeSlot(writes, GroupSlotKey(i+1), g); err != nil {
			return 0, err
		}
	}
	return 1 + len(others), nil
}

// encodeURLs writes URLs to slots 0..min(len,400)-1 in their given order.
func (c *Codec) encodeURLs(writes map[string]string, urls []*domain.URL) (int, error) {
	if len(urls) > domain.MaxURLs {
		c.log.Warn("dropping urls beyond capacity",
			logger.Int("dropped", len(urls)-domain.MaxURLs))
		urls = urls[:domain.MaxURLs]
	}
	for i, u := range urls {
		if err := encodeSlot(writes, URLSlotKey(i), u); err != nil {
			return 0, err
		}
	}
	return len(urls), nil
}

func (c *Codec) encodeMeta(writes map[string]string, meta Meta) error {
	// Every save upgrades to the current schema.
	writes[KeySchemaVersion] = strconv.Itoa(SchemaChunked)

	prefs, err := json.Marshal(meta.Preferences)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	writes[KeyPreferences] = string(prefs)

	theme, err := json.Marshal(meta.Theme)
	if err != nil {
		return fmt.Errorf("failed to encode theme: %w", err)
	}
	writes[KeyTheme] = string(theme)
	return nil
}

func encodeSlot(writes map[string]string, key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode slot %s: %w", key, err)
	}
	writes[key] = string(data)
	return nil
}

// staleSlotKeys returns the slot keys populated by an earlier save but not
// by this one: indices >= the new count up to the previous count. When the
// previous count is missing or unparsable, the whole family tail is
// cleared, which costs nothing beyond key enumeration.
func (c *Codec) staleSlotKeys(ctx context.Context, groupCount, urlCount int) ([]string, error) {
	prev, err := c.store.Get(ctx, []string{KeyGroupCount, KeyURLCount})
	if err != nil {
		return nil, fmt.Errorf("failed to read previous counts: %w", err)
	}

	prevGroups := parseCount(prev[KeyGroupCount], domain.MaxGroups)
	prevURLs := parseCount(prev[KeyURLCount], domain.MaxURLs)

	var stale []string
	for i := groupCount; i < prevGroups; i++ {
		stale = append(stale, GroupSlotKey(i))
	}
	for i := urlCount; i < prevURLs; i++ {
		stale = append(stale, URLSlotKey(i))
	}
	return stale, nil
}

// parseCount reads a count marker, clamped to the family's hard maximum.
// Absent or garbage markers fall back to the maximum so every possibly
// populated slot still gets visited.
func parseCount(raw string, max int) int {
	if raw == "" {
		return max
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return max
	}
	if n > max {
		return max
	}
	return n
}
