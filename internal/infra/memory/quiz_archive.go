package memory

import (
	"context"
	"sync"

	"pdf-quiz-service/internal/domain"
)

// QuizArchive keeps generated quizzes in process memory (useful for tests/demos).
type QuizArchive struct {
	mu      sync.RWMutex
	quizzes map[string]domain.ArchivedQuiz
}

func NewQuizArchive() *QuizArchive {
	return &QuizArchive{quizzes: make(map[string]domain.ArchivedQuiz)}
}

func (a *QuizArchive) SaveQuiz(_ context.Context, quiz domain.ArchivedQuiz) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quizzes[quiz.ID] = quiz
	return nil
}

func (a *QuizArchive) LoadQuiz(_ context.Context, id string) (domain.ArchivedQuiz, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	quiz, ok := a.quizzes[id]
	if !ok {
		return domain.ArchivedQuiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}
