package session

import (
	"context"
	"time"

	"github.com/kazmiyai/favuls/internal/domain"
	"github.com/kazmiyai/favuls/internal/logger"
)

// Export renders the full store as a backup file. Returns the file bytes
// and the conventional filename.
func (s *Session) Export(ctx context.Context) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, "", err
	}

	now := time.Now()
	snap := domain.ExportSnapshot(domain.SortedGroups(s.groups), s.urls, now)
	data, err := snap.Encode()
	if err != nil {
		return nil, "", err
	}
	return data, domain.ExportFilename(now), nil
}

// Import applies a backup file in the chosen mode. The file is validated
// wholesale first; any violation rejects the entire import with no partial
// application. After resolution the normal repair and chunked save paths
// run before the result is visible.
func (s *Session) Import(ctx context.Context, data []byte, mode domain.ImportMode) (*domain.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	snap, err := domain.ParseSnapshot(data)
	if err != nil {
		return nil, err
	}

	var (
		groups []*domain.Group
		urls   []*domain.URL
		res    *domain.ImportResult
	)
	switch mode {
	case domain.ImportReplace:
		groups, urls, res = domain.Replace(snap)
	case domain.ImportMerge:
		groups, urls, res = domain.Merge(s.groups, s.urls, snap)
	default:
		return nil, domain.ErrInvalidImport
	}

	groups, _ = s.validator.Repair(groups, urls)
	domain.RenormalizeGroups(groups)
	domain.RenormalizeAllURLs(groups, urls)

	prevGroups, prevURLs := s.groups, s.urls
	s.groups, s.urls = groups, urls
	if err := s.persistLocked(ctx); err != nil {
		// Nothing was written; keep the live state the user still has.
		s.groups, s.urls = prevGroups, prevURLs
		return nil, err
	}

	s.log.Info("import applied",
		logger.String("mode", string(mode)),
		logger.Int("groups_imported", res.GroupsImported),
		logger.Int("urls_imported", res.URLsImported),
		logger.Int("groups_truncated", res.GroupsTruncated),
		logger.Int("urls_truncated", res.URLsTruncated))
	return res, nil
}
