package app

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"pdf-quiz-service/internal/domain"
)

const feedbackCorrect = "Correct!"

// UserAnswers pairs submitted selections (question id -> label) with the
// record's correct labels. Blank selections and questions that cannot be
// answered are skipped. The result follows record order.
func UserAnswers(rec domain.QuizRecord, selections map[string]string) []domain.UserAnswer {
	answerable := lo.Filter(rec.Questions, func(q domain.Question, _ int) bool {
		return q.Valid()
	})
	return lo.FilterMap(answerable, func(q domain.Question, _ int) (domain.UserAnswer, bool) {
		selected := strings.TrimSpace(selections[q.ID])
		if selected == "" {
			return domain.UserAnswer{}, false
		}
		return domain.UserAnswer{QuestionID: q.ID, Selected: selected, Correct: q.Correct}, true
	})
}

// Score counts answers whose selected label matches the record's correct
// label, ignoring case. Answers for unknown or malformed questions count
// toward neither the score nor the total; only the first answer per
// question is scored.
func Score(rec domain.QuizRecord, answers []domain.UserAnswer) domain.ScoreReport {
	report := domain.ScoreReport{Results: make([]domain.AnswerResult, 0, len(answers))}
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		q, ok := rec.Lookup(a.QuestionID)
		if !ok || !q.Valid() || seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		selected := strings.TrimSpace(a.Selected)
		isCorrect := strings.EqualFold(selected, q.Correct)
		report.Results = append(report.Results, domain.AnswerResult{
			QuestionID: q.ID,
			Selected:   strings.ToLower(selected),
			Correct:    q.Correct,
			IsCorrect:  isCorrect,
			Feedback:   feedback(q, isCorrect),
		})
	}
	report.Total = len(report.Results)
	report.Correct = lo.CountBy(report.Results, func(r domain.AnswerResult) bool {
		return r.IsCorrect
	})
	return report
}

func feedback(q domain.Question, isCorrect bool) string {
	if isCorrect {
		return feedbackCorrect
	}
	answer := strings.ToUpper(q.Correct)
	if text, ok := q.OptionText(q.Correct); ok {
		answer = fmt.Sprintf("%s) %s", answer, text)
	}
	return "Incorrect! Correct answer is: " + answer
}
