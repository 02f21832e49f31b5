package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/kazmiyai/favuls/internal/domain"
	"github.com/kazmiyai/favuls/internal/logger"
)

// CreateGroup adds a user-defined group at the end of the list.
func (s *Session) CreateGroup(ctx context.Context, name, color, description string) (*domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	if len(s.groups) >= domain.MaxGroups {
		return nil, domain.ErrGroupLimit
	}

	g, err := domain.NewGroup(name, color, description)
	if err != nil {
		return nil, err
	}
	cp := s.checkpointLocked()
	g.Order = domain.AppendOrderGroup(s.groups)
	s.groups = append(s.groups, g)

	if err := s.commitLocked(ctx, cp); err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

// UpdateGroup edits a group's name, color and description. The protected
// default group rejects renames through this flow.
func (s *Session) UpdateGroup(ctx context.Context, id, name, color, description string) (*domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	g, _ := s.findGroup(id)
	if g == nil {
		return nil, domain.ErrGroupNotFound
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > domain.MaxGroupNameLen {
		return nil, fmt.Errorf("%w: group name must be 1-%d characters", domain.ErrInvalidRecord, domain.MaxGroupNameLen)
	}
	if g.Protected && name != g.Name {
		return nil, domain.ErrProtectedGroup
	}

	cp := s.checkpointLocked()
	g.Name = name
	if color != "" {
		g.Color = color
	}
	g.Description = description
	g.Touch()

	if err := s.commitLocked(ctx, cp); err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

// DeleteGroup removes a group. By default its URLs migrate to the default
// group (the behavior the confirmation copy always promised); purge
// deletes them along with the group and must be requested explicitly.
func (s *Session) DeleteGroup(ctx context.Context, id string, purge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	g, i := s.findGroup(id)
	if g == nil {
		return domain.ErrGroupNotFound
	}
	if g.Protected || g.ID == domain.DefaultGroupID {
		return domain.ErrProtectedGroup
	}

	cp := s.checkpointLocked()
	if purge {
		kept := s.urls[:0]
		purged := 0
		for _, u := range s.urls {
			if u.GroupID == id {
				purged++
				continue
			}
			kept = append(kept, u)
		}
		s.urls = kept
		s.log.Info("group deleted with contents",
			logger.String("group", id), logger.Int("urls_purged", purged))
	} else {
		migrated := 0
		for _, u := range s.urls {
			if u.GroupID != id {
				continue
			}
			u.GroupID = domain.DefaultGroupID
			u.Order = domain.AppendOrderURL(s.urls, domain.DefaultGroupID)
			u.Touch()
			migrated++
		}
		domain.RenormalizeURLs(s.urls, domain.DefaultGroupID)
		s.log.Info("group deleted, contents moved to default group",
			logger.String("group", id), logger.Int("urls_migrated", migrated))
	}

	s.groups = append(s.groups[:i], s.groups[i+1:]...)
	domain.RenormalizeGroups(s.groups)
	s.recountLocked()

	return s.commitLocked(ctx, cp)
}

// ReorderGroup places a group adjacent to another via fractional
// insertion. The default group is excluded from the sortable set entirely:
// it is pinned at position 0 and cannot be moved or targeted.
func (s *Session) ReorderGroup(ctx context.Context, id, targetID string, above bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	g, _ := s.findGroup(id)
	if g == nil {
		return domain.ErrGroupNotFound
	}
	target, _ := s.findGroup(targetID)
	if target == nil {
		return domain.ErrGroupNotFound
	}
	if g.ID == domain.DefaultGroupID || target.ID == domain.DefaultGroupID {
		return domain.ErrProtectedGroup
	}

	cp := s.checkpointLocked()
	g.Order = domain.FractionalOrder(target.Order, above)
	g.Touch()
	domain.RenormalizeGroups(s.groups)

	return s.commitLocked(ctx, cp)
}

// SwapGroup is the keyboard move among non-default groups.
func (s *Session) SwapGroup(ctx context.Context, id string, up bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	g, _ := s.findGroup(id)
	if g == nil {
		return domain.ErrGroupNotFound
	}
	if g.ID == domain.DefaultGroupID {
		return domain.ErrProtectedGroup
	}

	sorted := domain.SortedGroups(s.groups)
	// Index 0 is always the default group; the sortable set starts at 1.
	pos := -1
	for i, sg := range sorted {
		if sg.ID == id {
			pos = i
			break
		}
	}

	var other *domain.Group
	switch {
	case up && pos > 1:
		other = sorted[pos-1]
	case !up && pos >= 1 && pos < len(sorted)-1:
		other = sorted[pos+1]
	default:
		return nil
	}

	cp := s.checkpointLocked()
	domain.SwapOrders(&g.Order, &other.Order)
	g.Touch()

	return s.commitLocked(ctx, cp)
}
