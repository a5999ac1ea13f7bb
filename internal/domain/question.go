package domain

import (
	"time"
)

// QuestionType tags the variant payload carried by a Question
type QuestionType string

const (
	QuestionTypeBySlogan           QuestionType = "movie_by_slogan"
	QuestionTypeByShortDescription QuestionType = "movie_by_short_description"
	QuestionTypeByDescription      QuestionType = "movie_by_description"
	QuestionTypeByImage            QuestionType = "movie_by_image"
	QuestionTypeByActors           QuestionType = "movie_by_actors"
	QuestionTypeByCharacters       QuestionType = "movie_by_characters"
)

var QuestionTypes = []QuestionType{
	QuestionTypeBySlogan,
	QuestionTypeByShortDescription,
	QuestionTypeByDescription,
	QuestionTypeByImage,
	QuestionTypeByActors,
	QuestionTypeByCharacters,
}

func (t QuestionType) IsValid() bool {
	for _, questionType := range QuestionTypes {
		if questionType == t {
			return true
		}
	}
	return false
}

// Answer is a user's verdict on a question
type Answer struct {
	Correct    bool     `bson:"correct" json:"correct"`
	AnswerTime *float64 `bson:"answer_time" json:"answer_time"`
}

// Question is a tagged union: the common fields plus the payload fields of
// the variant named by Type. Payload fields of other variants stay empty.
type Question struct {
	ID         string       `bson:"question_uid" json:"id"`
	Type       QuestionType `bson:"question_type" json:"question_type"`
	Username   string       `bson:"username" json:"username"`
	MovieID    int          `bson:"movie_id" json:"movie_id"`
	Title      string       `bson:"title" json:"title"`
	Answer     string       `bson:"answer" json:"answer"`
	Correct    *bool        `bson:"correct" json:"correct"`
	AnswerTime *float64     `bson:"answer_time" json:"answer_time"`
	Timestamp  time.Time    `bson:"timestamp" json:"timestamp"`

	// by-slogan
	Slogan string `bson:"slogan,omitempty" json:"slogan,omitempty"`
	// by-description and by-short-description
	Description *SpoilerText `bson:"description,omitempty" json:"description,omitempty"`
	// by-image
	ImageURL string `bson:"image_url,omitempty" json:"image_url,omitempty"`
	// by-actors
	Actors          []Person `bson:"actors,omitempty" json:"actors,omitempty"`
	HideActorPhotos bool     `bson:"hide_actor_photos,omitempty" json:"hide_actor_photos,omitempty"`
	// by-characters
	Characters []string `bson:"characters,omitempty" json:"characters,omitempty"`
}

// Pending reports whether the question still waits for an answer
func (q *Question) Pending() bool {
	return q.Correct == nil
}

// SetAnswer records the verdict and refreshes the timestamp
func (q *Question) SetAnswer(answer Answer) {
	correct := answer.Correct
	q.Correct = &correct
	q.AnswerTime = answer.AnswerTime
	q.Timestamp = time.Now()
}

// RemoveAnswer turns the question back into an unanswered one
func (q *Question) RemoveAnswer() {
	q.Correct = nil
	q.AnswerTime = nil
	q.Timestamp = time.Now()
}

// IsValid reports whether the question can still be asked: its movie is
// eligible and its type keeps a positive weight.
func (q *Question) IsValid(movieIDs map[int]struct{}, settings *QuestionSettings) bool {
	if _, ok := movieIDs[q.MovieID]; !ok {
		return false
	}
	return settings.QuestionTypes[q.Type] > 0
}

// Clone returns a deep copy so callers may mutate the result freely
func (q *Question) Clone() *Question {
	clone := *q
	if q.Correct != nil {
		correct := *q.Correct
		clone.Correct = &correct
	}
	if q.AnswerTime != nil {
		answerTime := *q.AnswerTime
		clone.AnswerTime = &answerTime
	}
	if q.Description != nil {
		description := *q.Description
		description.Spoilers = append([]Spoiler(nil), q.Description.Spoilers...)
		clone.Description = &description
	}
	clone.Actors = append([]Person(nil), q.Actors...)
	clone.Characters = append([]string(nil), q.Characters...)
	return &clone
}
