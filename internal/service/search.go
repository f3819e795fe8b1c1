package service

import (
	"context"
	"strings"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// Search routes between the tag-only fast path and the combined path. All
// supplied filters AND together, and ALL-tag semantics are honored on both
// paths. Unknown tag names are dropped silently after normalization.
func (s *documentService) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 100
	}
	skip := in.Skip
	if skip < 0 {
		skip = 0
	}
	pq := repository.PageQuery{Limit: limit, Offset: skip}

	names := NormalizeTags(in.Tags)
	hasOther := in.Query != "" || in.FileType != ""

	// An explicit tag filter that normalizes to nothing matches no documents.
	// That is different from omitting the filter altogether.
	if in.Tags != nil && len(names) == 0 && !hasOther {
		return emptySearchResult(), nil
	}

	if len(names) > 0 && !hasOther {
		ids, err := s.resolveTagIDs(ctx, names)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return emptySearchResult(), nil
		}
		res, err := s.repo.SearchByTags(ctx, ids, in.MatchAll, pq)
		if err != nil {
			return nil, err
		}
		return &SearchResult{Documents: res.Items, Total: res.Total}, nil
	}

	f := repository.SearchFilter{
		Query:    in.Query,
		FileType: normalizeFileType(in.FileType),
		MatchAll: in.MatchAll,
	}
	if len(names) > 0 {
		ids, err := s.resolveTagIDs(ctx, names)
		if err != nil {
			return nil, err
		}
		// When none of the names resolve the tag filter drops out and the
		// remaining filters still apply.
		f.TagIDs = ids
	}

	res, err := s.repo.Search(ctx, f, pq)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Documents: res.Items, Total: res.Total}, nil
}

// resolveTagIDs maps normalized names to tag IDs, consulting the cache first.
// Names the store does not know are dropped.
func (s *documentService) resolveTagIDs(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	var misses []string
	for _, n := range names {
		if id, ok := s.tags.GetID(ctx, n); ok {
			ids = append(ids, id)
		} else {
			misses = append(misses, n)
		}
	}
	if len(misses) > 0 {
		found, err := s.repo.FindTagsByNames(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, t := range found {
			ids = append(ids, t.ID)
			s.tags.SetID(ctx, t.Name, t.ID)
		}
	}
	return ids, nil
}

func normalizeFileType(ft string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ft), "."))
}

func emptySearchResult() *SearchResult {
	return &SearchResult{Documents: []model.DocumentSummary{}, Total: 0}
}
