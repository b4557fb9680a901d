package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pdf-quiz-service/internal/domain"
)

// QuizArchive stores generated quizzes as JSONB in Postgres.
type QuizArchive struct {
	pool *pgxpool.Pool
}

func NewQuizArchive(pool *pgxpool.Pool) *QuizArchive {
	return &QuizArchive{pool: pool}
}

func (a *QuizArchive) SaveQuiz(ctx context.Context, quiz domain.ArchivedQuiz) error {
	record, err := json.Marshal(quiz.Record)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO quiz_archive (id, session_id, document, model, record, raw_response, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		quiz.ID, quiz.SessionID, quiz.Document, quiz.Model, string(record), quiz.RawResponse, quiz.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (a *QuizArchive) LoadQuiz(ctx context.Context, id string) (domain.ArchivedQuiz, error) {
	var (
		quiz domain.ArchivedQuiz
		raw  []byte
	)
	err := a.pool.QueryRow(ctx,
		`SELECT id, session_id, document, model, record, raw_response, created_at
		 FROM quiz_archive WHERE id=$1`, id,
	).Scan(&quiz.ID, &quiz.SessionID, &quiz.Document, &quiz.Model, &raw, &quiz.RawResponse, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ArchivedQuiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.ArchivedQuiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Record); err != nil {
		return domain.ArchivedQuiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}
