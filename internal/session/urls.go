package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/kazmiyai/favuls/internal/domain"
	"github.com/kazmiyai/favuls/internal/logger"
)

// Tab is what the tab-capture collaborator hands us: the active tab's
// address and title. Title is a trusted hint; a missing one falls back to
// the address.
type Tab struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// CaptureTab saves the active tab as a bookmark. Capturing an address that
// is already saved (up to scheme/host casing) reports ErrDuplicateURL
// instead of creating a second record.
func (s *Session) CaptureTab(ctx context.Context, tab Tab, groupID string) (*domain.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.addURLLocked(ctx, tab.URL, tab.Title, groupID)
}

// AddURL saves a manually entered bookmark. Same rules as capture.
func (s *Session) AddURL(ctx context.Context, address, title, groupID string) (*domain.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.addURLLocked(ctx, address, title, groupID)
}

// UpdateURL edits a bookmark's title and tags.
func (s *Session) UpdateURL(ctx context.Context, id, title string, tags []string) (*domain.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	u, _ := s.findURL(id)
	if u == nil {
		return nil, domain.ErrURLNotFound
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", domain.ErrInvalidRecord)
	}
	if len(title) > domain.MaxTitleLen {
		title = title[:domain.MaxTitleLen]
	}

	cp := s.checkpointLocked()
	u.Title = title
	u.Tags = tags
	u.Touch()

	if err := s.commitLocked(ctx, cp); err != nil {
		return nil, err
	}
	return u.Clone(), nil
}

// DeleteURL removes a bookmark.
func (s *Session) DeleteURL(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	u, i := s.findURL(id)
	if u == nil {
		return domain.ErrURLNotFound
	}
	cp := s.checkpointLocked()
	groupID := u.GroupID
	s.urls = append(s.urls[:i], s.urls[i+1:]...)

	domain.RenormalizeURLs(s.urls, groupID)
	s.recountLocked()
	return s.commitLocked(ctx, cp)
}

// MoveURL reassigns a bookmark to another group, appending it to the end
// of the target. Distinct from reordering: a drag onto a group header
// lands here, a drag onto another row in the same group is a reorder.
func (s *Session) MoveURL(ctx context.Context, id, targetGroupID string) (*domain.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	u, _ := s.findURL(id)
	if u == nil {
		return nil, domain.ErrURLNotFound
	}
	if g, _ := s.findGroup(targetGroupID); g == nil {
		return nil, domain.ErrGroupNotFound
	}
	if u.GroupID == targetGroupID {
		return u.Clone(), nil
	}

	cp := s.checkpointLocked()
	fromGroup := u.GroupID
	newOrder := domain.AppendOrderURL(s.urls, targetGroupID)
	u.GroupID = targetGroupID
	u.Order = newOrder
	u.Touch()

	domain.RenormalizeURLs(s.urls, fromGroup)
	s.recountLocked()

	if err := s.commitLocked(ctx, cp); err != nil {
		return nil, err
	}
	return u.Clone(), nil
}

// ReorderURL places a bookmark adjacent to another bookmark of the same
// group via fractional insertion, then renormalizes the group's scope.
// Cross-group targets are rejected; that drag is a MoveURL.
func (s *Session) ReorderURL(ctx context.Context, id, targetID string, above bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	u, _ := s.findURL(id)
	if u == nil {
		return domain.ErrURLNotFound
	}
	target, _ := s.findURL(targetID)
	if target == nil {
		return domain.ErrURLNotFound
	}
	if u.GroupID != target.GroupID {
		return domain.ErrCrossGroupReorder
	}

	cp := s.checkpointLocked()
	u.Order = domain.FractionalOrder(target.Order, above)
	u.Touch()
	domain.RenormalizeURLs(s.urls, u.GroupID)

	return s.commitLocked(ctx, cp)
}

// SwapURL is the keyboard move: exchange order with the adjacent sibling.
// No fractional value is introduced, so no renormalization is needed and
// the end state matches the equivalent drag.
func (s *Session) SwapURL(ctx context.Context, id string, up bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	u, _ := s.findURL(id)
	if u == nil {
		return domain.ErrURLNotFound
	}

	siblings := domain.SortedURLs(s.urls, u.GroupID)
	pos := -1
	for i, sib := range siblings {
		if sib.ID == id {
			pos = i
			break
		}
	}

	var other *domain.URL
	switch {
	case up && pos > 0:
		other = siblings[pos-1]
	case !up && pos >= 0 && pos < len(siblings)-1:
		other = siblings[pos+1]
	default:
		return nil // already at the edge, nothing to do
	}

	cp := s.checkpointLocked()
	domain.SwapOrders(&u.Order, &other.Order)
	u.Touch()

	return s.commitLocked(ctx, cp)
}

func (s *Session) addURLLocked(ctx context.Context, address, title, groupID string) (*domain.URL, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return nil, err
	}

	normalized := domain.NormalizeAddress(address)
	for _, existing := range s.urls {
		if domain.NormalizeAddress(existing.URL) == normalized {
			return nil, domain.ErrDuplicateURL
		}
	}

	// Interactive creation refuses at the cap; only import truncates.
	if len(s.urls) >= domain.MaxURLs {
		return nil, domain.ErrURLLimit
	}

	if groupID == "" {
		groupID = domain.DefaultGroupID
	}
	if g, _ := s.findGroup(groupID); g == nil {
		return nil, domain.ErrGroupNotFound
	}

	u, err := domain.NewURL(address, title, groupID)
	if err != nil {
		return nil, err
	}
	cp := s.checkpointLocked()
	u.Order = domain.AppendOrderURL(s.urls, groupID)
	s.urls = append(s.urls, u)
	s.recountLocked()

	// On failure the save didn't happen; the record is dropped so the
	// user can free space and retry the identical operation.
	if err := s.commitLocked(ctx, cp); err != nil {
		return nil, err
	}

	s.log.Info("bookmark saved",
		logger.String("id", u.ID),
		logger.String("domain", u.Domain),
		logger.String("group", groupID))
	return u.Clone(), nil
}
