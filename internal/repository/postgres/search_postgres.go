package postgres

import (
	"context"
	"fmt"
	"strings"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// SearchByTags is the tag-only search path. ANY mode matches documents whose
// tag set intersects the given IDs; ALL mode requires the distinct matched
// associations to cover every given tag. Results order by creation time
// descending, newest first.
func (r *DocumentPostgres) SearchByTags(ctx context.Context, tagIDs []int64, matchAll bool, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	if len(tagIDs) == 0 {
		return &repository.PageResult[model.DocumentSummary]{Items: []model.DocumentSummary{}}, nil
	}

	ph := placeholders(len(tagIDs), 1)
	args := make([]any, 0, len(tagIDs)+3)
	for _, id := range tagIDs {
		args = append(args, id)
	}

	var qCount, qList string
	if matchAll {
		qCount = `
			SELECT COUNT(*) FROM (
				SELECT dt.document_id
				FROM document_tags dt
				WHERE dt.tag_id IN (` + ph + `)
				GROUP BY dt.document_id
				HAVING COUNT(DISTINCT dt.tag_id) = $` + fmt.Sprint(len(tagIDs)+1) + `
			) matched
		`
		qList = `
			SELECT d.id, d.title, d.description, d.created_at
			FROM documents d
			JOIN document_tags dt ON dt.document_id = d.id
			WHERE dt.tag_id IN (` + ph + `)
			GROUP BY d.id
			HAVING COUNT(DISTINCT dt.tag_id) = $` + fmt.Sprint(len(tagIDs)+1) + `
			ORDER BY d.created_at DESC, d.id DESC
			LIMIT $` + fmt.Sprint(len(tagIDs)+2) + ` OFFSET $` + fmt.Sprint(len(tagIDs)+3)
		args = append(args, len(tagIDs))
	} else {
		qCount = `
			SELECT COUNT(DISTINCT dt.document_id)
			FROM document_tags dt
			WHERE dt.tag_id IN (` + ph + `)
		`
		qList = `
			SELECT DISTINCT d.id, d.title, d.description, d.created_at
			FROM documents d
			JOIN document_tags dt ON dt.document_id = d.id
			WHERE dt.tag_id IN (` + ph + `)
			ORDER BY d.created_at DESC, d.id DESC
			LIMIT $` + fmt.Sprint(len(tagIDs)+1) + ` OFFSET $` + fmt.Sprint(len(tagIDs)+2)
	}

	var total int
	if err := r.q.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	args = append(args, pq.Limit, pq.Offset)
	docs, err := r.queryDocuments(ctx, qList, args...)
	if err != nil {
		return nil, err
	}

	items, err := r.loadSummaries(ctx, docs)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.DocumentSummary]{Items: items, Total: total}, nil
}

// Search is the combined path: every supplied filter ANDs with the rest.
// The file type filter matches only each document's latest version, so a
// document whose history changed type matches its current type alone.
func (r *DocumentPostgres) Search(ctx context.Context, f repository.SearchFilter, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	var (
		where []string
		args  []any
		idx   = 1
	)

	if f.Query != "" {
		where = append(where, fmt.Sprintf("(d.title ILIKE $%d OR d.description ILIKE $%d)", idx, idx))
		args = append(args, "%"+f.Query+"%")
		idx++
	}

	if len(f.TagIDs) > 0 {
		ph := placeholders(len(f.TagIDs), idx)
		for _, id := range f.TagIDs {
			args = append(args, id)
		}
		idx += len(f.TagIDs)

		sub := "d.id IN (SELECT dt.document_id FROM document_tags dt WHERE dt.tag_id IN (" + ph + ")"
		if f.MatchAll {
			sub += fmt.Sprintf(" GROUP BY dt.document_id HAVING COUNT(DISTINCT dt.tag_id) = $%d", idx)
			args = append(args, len(f.TagIDs))
			idx++
		}
		sub += ")"
		where = append(where, sub)
	}

	if f.FileType != "" {
		where = append(where, fmt.Sprintf(`d.id IN (
			SELECT v.document_id FROM document_versions v
			WHERE v.file_type = $%d
			  AND v.version_number = (
				SELECT MAX(v2.version_number) FROM document_versions v2 WHERE v2.document_id = v.document_id
			  ))`, idx))
		args = append(args, f.FileType)
		idx++
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	qCount := "SELECT COUNT(*) FROM documents d" + whereSQL
	if err := r.q.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	qList := "SELECT d.id, d.title, d.description, d.created_at FROM documents d" + whereSQL +
		fmt.Sprintf(" ORDER BY d.created_at DESC, d.id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, pq.Limit, pq.Offset)

	docs, err := r.queryDocuments(ctx, qList, args...)
	if err != nil {
		return nil, err
	}

	items, err := r.loadSummaries(ctx, docs)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.DocumentSummary]{Items: items, Total: total}, nil
}

// loadSummaries decorates a page of documents with latest version (highest
// version number), tag set and version count, using three batched queries.
func (r *DocumentPostgres) loadSummaries(ctx context.Context, docs []model.Document) ([]model.DocumentSummary, error) {
	items := make([]model.DocumentSummary, 0, len(docs))
	if len(docs) == 0 {
		return items, nil
	}

	ph := placeholders(len(docs), 1)
	args := make([]any, len(docs))
	byID := make(map[int64]*model.DocumentSummary, len(docs))
	for i, d := range docs {
		args[i] = d.ID
		items = append(items, model.DocumentSummary{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			CreatedAt:   d.CreatedAt,
			Tags:        []model.Tag{},
		})
	}
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	// Latest version per document by version number, not upload time.
	qLatest := `
		SELECT DISTINCT ON (document_id)
		       id, document_id, version_number, storage_path, file_size, file_type, uploaded_at
		FROM document_versions
		WHERE document_id IN (` + ph + `)
		ORDER BY document_id, version_number DESC
	`
	rows, err := r.q.QueryContext(ctx, qLatest, args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var v model.DocumentVersion
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.VersionNumber, &v.StoragePath, &v.FileSize, &v.FileType, &v.UploadedAt); err != nil {
			rows.Close()
			return nil, err
		}
		if s, ok := byID[v.DocumentID]; ok {
			ver := v
			s.LatestVersion = &ver
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	qCounts := `
		SELECT document_id, COUNT(*)
		FROM document_versions
		WHERE document_id IN (` + ph + `)
		GROUP BY document_id
	`
	rows, err = r.q.QueryContext(ctx, qCounts, args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var docID int64
		var count int
		if err := rows.Scan(&docID, &count); err != nil {
			rows.Close()
			return nil, err
		}
		if s, ok := byID[docID]; ok {
			s.VersionCount = count
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	qTags := `
		SELECT dt.document_id, t.id, t.name
		FROM document_tags dt
		JOIN tags t ON t.id = dt.tag_id
		WHERE dt.document_id IN (` + ph + `)
		ORDER BY dt.document_id, t.id
	`
	rows, err = r.q.QueryContext(ctx, qTags, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var docID int64
		var t model.Tag
		if err := rows.Scan(&docID, &t.ID, &t.Name); err != nil {
			return nil, err
		}
		if s, ok := byID[docID]; ok {
			s.Tags = append(s.Tags, t)
		}
	}
	return items, rows.Err()
}
