// Package session owns the in-memory copy of the store for one process
// instance. Every operation locks the session, mutates the collections,
// and persists the whole envelope; there is no partial or incremental
// persistence. Cross-instance consistency is deliberately weak: a change
// notification from another instance discards this one's state and
// reloads, and whoever saves last wins.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kazmiyai/favuls/internal/domain"
	"github.com/kazmiyai/favuls/internal/logger"
	"github.com/kazmiyai/favuls/internal/store/chunk"
	"github.com/kazmiyai/favuls/internal/store/kv"
)

// Session is the explicit state object: the (groups, urls, meta) triple
// plus the codec and validator it loads and saves through.
type Session struct {
	codec     *chunk.Codec
	validator *domain.Validator
	log       logger.Logger

	mu     sync.Mutex
	groups []*domain.Group
	urls   []*domain.URL
	meta   chunk.Meta
	loaded bool
}

// State is a copy of the session's collections, safe to use outside the
// lock. Groups and URLs come back in display order.
type State struct {
	Groups []*domain.Group `json:"groups"`
	URLs   []*domain.URL   `json:"urls"`
}

// Stats summarizes the store for the options page.
type Stats struct {
	Groups     int `json:"groups"`
	URLs       int `json:"urls"`
	BytesUsed  int `json:"bytesUsed"`
	QuotaBytes int `json:"quotaBytes"`
}

func New(codec *chunk.Codec, validator *domain.Validator, log logger.Logger) *Session {
	return &Session{
		codec:     codec,
		validator: validator,
		log:       log,
	}
}

// Load reads the store, runs the integrity repair pass, and persists
// immediately when anything was repaired so the repaired state becomes
// durable. Safe to call again; it always starts from the stored truth.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// Reload discards the in-memory state and loads from scratch. This is the
// reaction to a change notification from another instance: no merge, the
// stored truth wins and unsaved local state is lost.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	return s.loadLocked(ctx)
}

// Sweep re-runs the integrity pass over the live state and persists when
// anything needed repair.
func (s *Session) Sweep(ctx context.Context) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Report{}, err
	}

	groups, rep := s.validator.Repair(s.groups, s.urls)
	s.groups = groups
	if !rep.HasChanges {
		return rep, nil
	}
	if err := s.persistLocked(ctx); err != nil {
		return rep, err
	}
	return rep, nil
}

// State returns a display-ordered copy of the collections.
func (s *Session) State(ctx context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	st := &State{
		Groups: make([]*domain.Group, 0, len(s.groups)),
		URLs:   make([]*domain.URL, 0, len(s.urls)),
	}
	for _, g := range domain.SortedGroups(s.groups) {
		st.Groups = append(st.Groups, g.Clone())
	}
	for _, g := range st.Groups {
		for _, u := range domain.SortedURLs(s.urls, g.ID) {
			st.URLs = append(st.URLs, u.Clone())
		}
	}
	return st, nil
}

// Search filters bookmarks by case-insensitive substring over title,
// address and domain.
func (s *Session) Search(ctx context.Context, query string) ([]*domain.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	matches := make([]*domain.URL, 0)
	for _, u := range s.urls {
		if matchesQuery(u, query) {
			matches = append(matches, u.Clone())
		}
	}
	return matches, nil
}

// Stats reports counts and byte usage against the quota.
func (s *Session) Stats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	used, err := s.codec.Usage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read store usage: %w", err)
	}
	return &Stats{
		Groups:     len(s.groups),
		URLs:       len(s.urls),
		BytesUsed:  used,
		QuotaBytes: kv.QuotaBytes,
	}, nil
}

// Preferences returns the persisted preference toggles.
func (s *Session) Preferences(ctx context.Context) (chunk.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return chunk.Preferences{}, err
	}
	return s.meta.Preferences, nil
}

// SetPreferences persists new preference toggles.
func (s *Session) SetPreferences(ctx context.Context, p chunk.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	prev := s.meta
	s.meta.Preferences = p
	if err := s.persistLocked(ctx); err != nil {
		s.meta = prev
		return err
	}
	return nil
}

// Theme returns the persisted theme.
func (s *Session) Theme(ctx context.Context) (chunk.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return chunk.Theme{}, err
	}
	return s.meta.Theme, nil
}

// SetTheme persists a new theme.
func (s *Session) SetTheme(ctx context.Context, t chunk.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	prev := s.meta
	s.meta.Theme = t
	if err := s.persistLocked(ctx); err != nil {
		s.meta = prev
		return err
	}
	return nil
}

// Ping reports backing-store reachability (readiness checks).
func (s *Session) Ping(ctx context.Context) error {
	return s.codec.Ping(ctx)
}

// ─────────────────────────────────────────────────────────────────
// Internals (callers hold s.mu)
// ─────────────────────────────────────────────────────────────────

func (s *Session) loadLocked(ctx context.Context) error {
	snap, info, err := s.codec.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	groups, rep := s.validator.Repair(snap.Groups, snap.URLs)
	s.groups = groups
	s.urls = snap.URLs
	s.meta = snap.Meta
	s.loaded = true

	if info.Legacy() {
		s.log.Info("legacy storage format detected, next save will migrate",
			logger.String("group_format", info.GroupFormat.String()),
			logger.String("url_format", info.URLFormat.String()))
	}

	if rep.HasChanges {
		s.log.Info("integrity repair applied on load",
			logger.Int("urls_fixed", rep.URLsFixed),
			logger.Int("groups_fixed", rep.GroupsFixed))
		if err := s.persistLocked(ctx); err != nil {
			return fmt.Errorf("failed to persist integrity repair: %w", err)
		}
	}

	return nil
}

func (s *Session) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

func (s *Session) persistLocked(ctx context.Context) error {
	return s.codec.Save(ctx, &chunk.Snapshot{
		Groups: s.groups,
		URLs:   s.urls,
		Meta:   s.meta,
	})
}

// checkpoint is a deep copy of the collections taken before a mutation.
type checkpoint struct {
	groups []*domain.Group
	urls   []*domain.URL
	meta   chunk.Meta
}

func (s *Session) checkpointLocked() checkpoint {
	cp := checkpoint{
		groups: make([]*domain.Group, len(s.groups)),
		urls:   make([]*domain.URL, len(s.urls)),
		meta:   s.meta,
	}
	for i, g := range s.groups {
		cp.groups[i] = g.Clone()
	}
	for i, u := range s.urls {
		cp.urls[i] = u.Clone()
	}
	return cp
}

// commitLocked persists the collections. On failure the checkpoint is
// restored, so a failed save undoes the caller's mutation and the session
// keeps matching the stored truth.
func (s *Session) commitLocked(ctx context.Context, cp checkpoint) error {
	if err := s.persistLocked(ctx); err != nil {
		s.groups, s.urls, s.meta = cp.groups, cp.urls, cp.meta
		return err
	}
	return nil
}

func (s *Session) findURL(id string) (*domain.URL, int) {
	for i, u := range s.urls {
		if u.ID == id {
			return u, i
		}
	}
	return nil, -1
}

func (s *Session) findGroup(id string) (*domain.Group, int) {
	for i, g := range s.groups {
		if g.ID == id {
			return g, i
		}
	}
	return nil, -1
}

func (s *Session) recountLocked() {
	counts := make(map[string]int, len(s.groups))
	for _, u := range s.urls {
		counts[u.GroupID]++
	}
	for _, g := range s.groups {
		g.URLCount = counts[g.ID]
	}
}

func matchesQuery(u *domain.URL, query string) bool {
	if query == "" {
		return true
	}
	return containsFold(u.Title, query) ||
		containsFold(u.URL, query) ||
		containsFold(u.Domain, query)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
