package repo

import (
	"context"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"codescout/internal/model"
	"codescout/internal/pkg/dbutil"
)

// ChunkRepo stores pre-computed code-chunk embeddings. All reads use a single
// statement so a search never observes a half-replaced corpus; writes replace
// a session's whole chunk set in one transaction.
type ChunkRepo struct {
	db *sqlx.DB
}

func NewChunkRepo(db *sqlx.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ChunkVector is a corpus row joined with its session metadata, vector
// included.
type ChunkVector struct {
	ID          string
	SessionID   string
	SessionName string
	GithubURL   string
	FilePath    string
	FileContent string
	ChunkIndex  int
	ChunkSize   int
	Vector      []float32
	CreatedAt   time.Time
}

// ListVectors returns every stored chunk vector, restricted to one session
// when sessionID is non-empty. Statement-level snapshot isolation guarantees
// the result is from a single corpus generation.
func (r *ChunkRepo) ListVectors(ctx context.Context, sessionID string) ([]ChunkVector, error) {
	query := `
		SELECT cce.id, cce.session_id, css.name, css.github_url,
		       cce.file_path, cce.file_content, cce.chunk_index, cce.chunk_size,
		       cce.embedding, cce.created_at
		FROM code_chunk_embeddings cce
		JOIN code_search_sessions css ON cce.session_id = css.id
		WHERE cce.embedding IS NOT NULL
	`
	args := []interface{}{}
	if sessionID != "" {
		query += " AND cce.session_id = $1"
		args = append(args, sessionID)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []ChunkVector
	for rows.Next() {
		var item ChunkVector
		var embedding pgvector.Vector
		if err := rows.Scan(
			&item.ID, &item.SessionID, &item.SessionName, &item.GithubURL,
			&item.FilePath, &item.FileContent, &item.ChunkIndex, &item.ChunkSize,
			&embedding, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.Vector = embedding.Slice()
		results = append(results, item)
	}
	return results, rows.Err()
}

// SearchByPath returns unranked chunks whose file path matches the SQL LIKE
// pattern, ordered by (file_path, chunk_index). Matching is case-sensitive.
func (r *ChunkRepo) SearchByPath(ctx context.Context, pattern string, sessionID string) ([]model.ChunkMatch, error) {
	query := `
		SELECT cce.id, cce.session_id, css.name, css.github_url,
		       cce.file_path, cce.file_content, cce.chunk_index, cce.chunk_size,
		       cce.created_at
		FROM code_chunk_embeddings cce
		JOIN code_search_sessions css ON cce.session_id = css.id
		WHERE cce.file_path LIKE $1
	`
	args := []interface{}{pattern}
	if sessionID != "" {
		query += " AND cce.session_id = $2"
		args = append(args, sessionID)
	}
	query += " ORDER BY cce.file_path, cce.chunk_index"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ChunkMatch
	for rows.Next() {
		var item model.ChunkMatch
		if err := rows.Scan(
			&item.ID, &item.SessionID, &item.SessionName, &item.GithubURL,
			&item.FilePath, &item.FileContent, &item.ChunkIndex, &item.ChunkSize,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// SessionFiles aggregates chunk count and size per distinct file path.
func (r *ChunkRepo) SessionFiles(ctx context.Context, sessionID string) ([]model.SessionFile, error) {
	const query = `
		SELECT file_path, COUNT(*) AS chunk_count,
		       COALESCE(SUM(chunk_size), 0) AS total_content_size,
		       MAX(created_at) AS last_processed
		FROM code_chunk_embeddings
		WHERE session_id = $1
		GROUP BY file_path
		ORDER BY file_path
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var files []model.SessionFile
	for rows.Next() {
		var item model.SessionFile
		if err := rows.Scan(&item.FilePath, &item.ChunkCount, &item.TotalContentSize, &item.LastProcessed); err != nil {
			return nil, err
		}
		files = append(files, item)
	}
	return files, rows.Err()
}

// CountBySession returns the number of stored chunks for a session.
func (r *ChunkRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	where := map[string]interface{}{
		"session_id": sessionID,
	}
	sqlStr, args, err := builder.BuildSelect("code_chunk_embeddings", where, []string{"count(*)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var count int
	if err := r.db.GetContext(ctx, &count, sqlStr, args...); err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceGeneration swaps a session's entire chunk set in one transaction.
// Readers either see the old generation or the new one, never a mixture.
func (r *ChunkRepo) ReplaceGeneration(ctx context.Context, sessionID string, chunks []model.ChunkEmbedding) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM code_chunk_embeddings WHERE session_id = $1`, sessionID); err != nil {
		return err
	}
	const insert = `
		INSERT INTO code_chunk_embeddings
			(id, session_id, file_path, file_content, chunk_index, chunk_size, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, insert,
			chunk.ID, sessionID, chunk.FilePath, chunk.Content,
			chunk.ChunkIndex, chunk.ChunkSize,
			pgvector.NewVector(chunk.Vector), chunk.CreatedAt,
		); err != nil {
			return err
		}
	}
	const touch = `
		UPDATE code_search_sessions
		SET embeddings_processed = TRUE, embeddings_count = $2
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, touch, sessionID, len(chunks)); err != nil {
		return err
	}
	return tx.Commit()
}
