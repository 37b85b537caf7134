package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"codescout/internal/repo"
)

// EmbeddingsReconcileJob re-derives each session's embeddings_count from the
// stored chunk rows. Generation swaps keep the counter consistent under
// normal operation; this catches drift from manual corpus edits.
type EmbeddingsReconcileJob struct {
	sessions *repo.SessionRepo
	chunks   *repo.ChunkRepo
}

func NewEmbeddingsReconcileJob(sessions *repo.SessionRepo, chunks *repo.ChunkRepo) *EmbeddingsReconcileJob {
	return &EmbeddingsReconcileJob{sessions: sessions, chunks: chunks}
}

func (j *EmbeddingsReconcileJob) Name() string {
	return "embeddings_reconcile"
}

func (j *EmbeddingsReconcileJob) Run(ctx context.Context) error {
	sessions, err := j.sessions.ListProcessed(ctx)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		count, err := j.chunks.CountBySession(ctx, session.ID)
		if err != nil {
			return err
		}
		if count == session.EmbeddingsCount {
			continue
		}
		logutil.GetLogger(ctx).Warn("embeddings count drift",
			zap.String("session_id", session.ID),
			zap.Int("recorded", session.EmbeddingsCount),
			zap.Int("actual", count))
		if err := j.sessions.UpdateEmbeddingsCount(ctx, session.ID, count); err != nil {
			return err
		}
	}
	return nil
}
