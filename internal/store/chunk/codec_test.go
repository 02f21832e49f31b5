package chunk

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"

	"github.com/kazmiyai/favuls/internal/domain"
	"github.com/kazmiyai/favuls/internal/logger"
	"github.com/kazmiyai/favuls/internal/store/kv"
)

func newTestCodec() (*Codec, *kv.Memory) {
	store := kv.NewMemory("test")
	return New(store, logger.Nop()), store
}

func testURL(t *testing.T, id string) *domain.URL {
	t.Helper()
	u, err := domain.NewURL("https://example.com/"+id, id, domain.DefaultGroupID)
	if err != nil {
		t.Fatalf("NewURL() error = %v", err)
	}
	u.ID = id
	return u
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c, _ := newTestCodec()
	ctx := context.Background()

	g, _ := domain.NewGroup("work", "#ff8800", "work stuff")
	snap := &Snapshot{
		Groups: []*domain.Group{domain.DefaultGroup(), g},
		URLs:   []*domain.URL{testURL(t, "u1"), testURL(t, "u2")},
		Meta:   DefaultMeta(),
	}

	if err := c.Save(ctx, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, info, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if info.GroupFormat != FormatChunked || info.URLFormat != FormatChunked {
		t.Errorf("formats = %v/%v, want chunked", info.GroupFormat, info.URLFormat)
	}
	if info.Legacy() {
		t.Error("LoadInfo.Legacy() = true after a chunked save")
	}
	if len(got.Groups) != 2 || len(got.URLs) != 2 {
		t.Fatalf("round trip: %d groups, %d urls, want 2 and 2", len(got.Groups), len(got.URLs))
	}
	if got.Groups[0].ID != domain.DefaultGroupID {
		t.Errorf("slot 0 group = %s, want default", got.Groups[0].ID)
	}
	if got.Meta.SchemaVersion != SchemaChunked {
		t.Errorf("SchemaVersion = %d, want %d", got.Meta.SchemaVersion, SchemaChunked)
	}
}

func TestLoadEmptyStore(t *testing.T) {
	c, _ := newTestCodec()

	snap, info, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if info.GroupFormat != FormatEmpty || info.URLFormat != FormatEmpty {
		t.Errorf("formats = %v/%v, want empty", info.GroupFormat, info.URLFormat)
	}
	if len(snap.Groups) != 0 || len(snap.URLs) != 0 {
		t.Errorf("empty store decoded %d groups, %d urls", len(snap.Groups), len(snap.URLs))
	}
	if snap.Meta.SchemaVersion != SchemaChunked {
		t.Errorf("default SchemaVersion = %d, want %d", snap.Meta.SchemaVersion, SchemaChunked)
	}
}

func TestLoadLegacyAggregate(t *testing.T) {
	c, store := newTestCodec()
	ctx := context.Background()

	groups := []*domain.Group{domain.DefaultGroup()}
	urls := []*domain.URL{testURL(t, "u1")}
	err := store.Set(ctx, map[string]string{
		KeyLegacyGroups:  mustJSON(t, groups),
		KeyLegacyURLs:    mustJSON(t, urls),
		KeySchemaVersion: strconv.Itoa(SchemaLegacyAggregate),
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	snap, info, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if info.GroupFormat != FormatLegacyAggregate || info.URLFormat != FormatLegacyAggregate {
		t.Errorf("formats = %v/%v, want legacy aggregate", info.GroupFormat, info.URLFormat)
	}
	if !info.Legacy() {
		t.Error("LoadInfo.Legacy() = false for an aggregate store")
	}
	if len(snap.Groups) != 1 || len(snap.URLs) != 1 {
		t.Errorf("decoded %d groups, %d urls, want 1 and 1", len(snap.Groups), len(snap.URLs))
	}
}

func TestLoadLegacyPerGroup(t *testing.T) {
	c, store := newTestCodec()
	ctx := context.Background()

	err := store.Set(ctx, map[string]string{
		KeyLegacyGroups:       mustJSON(t, []*domain.Group{domain.DefaultGroup()}),
		LegacyGroupURLsKey(0): mustJSON(t, []*domain.URL{testURL(t, "u1")}),
		LegacyGroupURLsKey(3): mustJSON(t, []*domain.URL{testURL(t, "u2"), testURL(t, "u3")}),
		KeySchemaVersion:      strconv.Itoa(SchemaLegacyPerGroup),
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	snap, info, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if info.URLFormat != FormatLegacyPerGroup {
		t.Errorf("url format = %v, want legacy per-group", info.URLFormat)
	}
	if info.GroupFormat != FormatLegacyAggregate {
		t.Errorf("group format = %v, want legacy aggregate", info.GroupFormat)
	}
	if len(snap.URLs) != 3 {
		t.Errorf("decoded %d urls, want 3 across per-group keys", len(snap.URLs))
	}
}

func TestFormatsDetectedIndependently(t *testing.T) {
	// A half-migrated store: chunked groups, per-group urls.
	c, store := newTestCodec()
	ctx := context.Background()

	err := store.Set(ctx, map[string]string{
		GroupSlotKey(0):       mustJSON(t, domain.DefaultGroup()),
		KeyGroupCount:         "1",
		LegacyGroupURLsKey(0): mustJSON(t, []*domain.URL{testURL(t, "u1")}),
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	snap, info, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if info.GroupFormat != FormatChunked {
		t.Errorf("group format = %v, want chunked", info.GroupFormat)
	}
	if info.URLFormat != FormatLegacyPerGroup {
		t.Errorf("url format = %v, want legacy per-group", info.URLFormat)
	}
	if len(snap.Groups) != 1 || len(snap.URLs) != 1 {
		t.Errorf("decoded %d groups, %d urls", len(snap.Groups), len(snap.URLs))
	}
}

func TestSaveMigratesLegacyKeys(t *testing.T) {
	c, store := newTestCodec()
	ctx := context.Background()

	err := store.Set(ctx, map[string]string{
		KeyLegacyGroups:       mustJSON(t, []*domain.Group{domain.DefaultGroup()}),
		KeyLegacyURLs:         mustJSON(t, []*domain.URL{testURL(t, "u1")}),
		LegacyGroupURLsKey(2): mustJSON(t, []*domain.URL{testURL(t, "u2")}),
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	snap, _, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := c.Save(ctx, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	leftovers, err := store.Get(ctx, LegacyKeys())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("legacy keys survived migration: %v", leftovers)
	}

	vals, _ := store.Get(ctx, []string{KeySchemaVersion})
	if vals[KeySchemaVersion] != strconv.Itoa(SchemaChunked) {
		t.Errorf("schemaVersion = %q, want %d", vals[KeySchemaVersion], SchemaChunked)
	}
}

func TestSaveClearsStaleSlots(t *testing.T) {
	c, store := newTestCodec()
	ctx := context.Background()

	urls := make([]*domain.URL, 0, 5)
	for i := 0; i < 5; i++ {
		urls = append(urls, testURL(t, fmt.Sprintf("u%d", i)))
	}
	first := &Snapshot{Groups: []*domain.Group{domain.DefaultGroup()}, URLs: urls, Meta: DefaultMeta()}
	if err := c.Save(ctx, first); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}

	second := &Snapshot{Groups: []*domain.Group{domain.DefaultGroup()}, URLs: urls[:2], Meta: DefaultMeta()}
	if err := c.Save(ctx, second); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	vals, _ := store.Get(ctx, []string{URLSlotKey(2), URLSlotKey(3), URLSlotKey(4), KeyURLCount})
	if vals[KeyURLCount] != "2" {
		t.Errorf("urlCount = %q, want 2", vals[KeyURLCount])
	}
	for _, k := range []string{URLSlotKey(2), URLSlotKey(3), URLSlotKey(4)} {
		if _, ok := vals[k]; ok {
			t.Errorf("stale slot %s not cleared", k)
		}
	}

	snap, _, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(snap.URLs) != 2 {
		t.Errorf("decoded %d urls after shrink, want 2", len(snap.URLs))
	}
}

func TestSaveDropsRecordsBeyondCapacity(t *testing.T) {
	c, _ := newTestCodec()
	ctx := context.Background()

	groups := []*domain.Group{domain.DefaultGroup()}
	for i := 0; i < 35; i++ {
		g, _ := domain.NewGroup(fmt.Sprintf("group %d", i), "", "")
		groups = append(groups, g)
	}
	// Bare records keep 450 slots comfortably under the byte quota so the
	// capacity ceiling is what gets exercised, not the quota.
	urls := make([]*domain.URL, 0, 450)
	for i := 0; i < 450; i++ {
		id := fmt.Sprintf("u%d", i)
		urls = append(urls, &domain.URL{
			ID:      id,
			URL:     "https://e.co/" + id,
			Title:   id,
			GroupID: domain.DefaultGroupID,
		})
	}

	if err := c.Save(ctx, &Snapshot{Groups: groups, URLs: urls, Meta: DefaultMeta()}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	snap, _, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(snap.Groups) != domain.MaxGroups {
		t.Errorf("decoded %d groups, want %d", len(snap.Groups), domain.MaxGroups)
	}
	if len(snap.URLs) != domain.MaxURLs {
		t.Errorf("decoded %d urls, want %d", len(snap.URLs), domain.MaxURLs)
	}
}

func TestSaveSynthesizesMissingDefaultGroup(t *testing.T) {
	c, _ := newTestCodec()
	ctx := context.Background()

	g, _ := domain.NewGroup("only", "", "")
	if err := c.Save(ctx, &Snapshot{Groups: []*domain.Group{g}, Meta: DefaultMeta()}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	snap, _, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Groups[0].ID != domain.DefaultGroupID {
		t.Errorf("slot 0 = %s, want synthesized default group", snap.Groups[0].ID)
	}
}

func TestLoadSkipsCorruptSlot(t *testing.T) {
	c, store := newTestCodec()
	ctx := context.Background()

	err := store.Set(ctx, map[string]string{
		KeyURLCount:   "2",
		URLSlotKey(0): "not json at all",
		URLSlotKey(1): mustJSON(t, testURL(t, "ok")),
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	snap, _, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v, corrupt slots must not fail the load", err)
	}
	if len(snap.URLs) != 1 || snap.URLs[0].ID != "ok" {
		t.Errorf("decoded %d urls, want just the intact one", len(snap.URLs))
	}
}

func TestLoadGarbageCountMarkerScansWholeFamily(t *testing.T) {
	c, store := newTestCodec()
	ctx := context.Background()

	err := store.Set(ctx, map[string]string{
		KeyURLCount:     "banana",
		URLSlotKey(0):   mustJSON(t, testURL(t, "u1")),
		URLSlotKey(399): mustJSON(t, testURL(t, "u2")),
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	snap, _, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(snap.URLs) != 2 {
		t.Errorf("decoded %d urls, want 2 (fallback must visit every slot)", len(snap.URLs))
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		max  int
		want int
	}{
		{"5", 400, 5},
		{"", 400, 400},
		{"garbage", 400, 400},
		{"-3", 400, 400},
		{"9999", 400, 400},
		{"0", 400, 0},
	}
	for _, tt := range tests {
		if got := parseCount(tt.raw, tt.max); got != tt.want {
			t.Errorf("parseCount(%q, %d) = %d, want %d", tt.raw, tt.max, got, tt.want)
		}
	}
}
