package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"codescout/internal/model"
	"codescout/internal/pkg/dbutil"
	appErr "codescout/internal/pkg/errors"
)

type SessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(ctx context.Context, session *model.Session) error {
	const query = `
		INSERT INTO code_search_sessions
			(id, name, github_url, agent_type, embeddings_processed, embeddings_count, created_at, last_used)
		VALUES (:id, :name, :github_url, :agent_type, :embeddings_processed, :embeddings_count, :created_at, :last_used)
	`
	_, err := r.db.NamedExecContext(ctx, query, session)
	if dbutil.IsConflict(err) {
		return fmt.Errorf("%w: session %s already exists", appErr.ErrValidation, session.ID)
	}
	return err
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*model.Session, error) {
	const query = `SELECT * FROM code_search_sessions WHERE id = $1`
	var session model.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListProcessed returns sessions whose embeddings have been generated,
// most recently used first.
func (r *SessionRepo) ListProcessed(ctx context.Context) ([]model.Session, error) {
	const query = `
		SELECT * FROM code_search_sessions
		WHERE embeddings_processed = TRUE
		ORDER BY last_used DESC
	`
	var sessions []model.Session
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepo) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE code_search_sessions SET last_used = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

func (r *SessionRepo) UpdateEmbeddingsCount(ctx context.Context, id string, count int) error {
	const query = `UPDATE code_search_sessions SET embeddings_count = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, count)
	return err
}
