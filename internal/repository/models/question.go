package models

import "movie-quiz/internal/domain"

// QuestionDocument is the stored form of a question. IsPending mirrors
// Correct == nil so a partial unique index can enforce one pending
// question per user.
type QuestionDocument struct {
	domain.Question `bson:",inline"`
	IsPending       bool `bson:"pending"`
}

func ToQuestionDocument(q *domain.Question) *QuestionDocument {
	if q == nil {
		return nil
	}
	return &QuestionDocument{Question: *q, IsPending: q.Pending()}
}

func ToDomainQuestion(doc *QuestionDocument) *domain.Question {
	if doc == nil {
		return nil
	}
	q := doc.Question
	return &q
}

// CounterDocument is an identifier counter
type CounterDocument struct {
	Name  string `bson:"name"`
	Value int    `bson:"value"`
}
