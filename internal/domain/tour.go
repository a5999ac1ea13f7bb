package domain

import "time"

// TourType selects the structural rule a quiz tour is generated with
type TourType string

const (
	TourTypeRegular       TourType = "regular"
	TourTypeAlphabet      TourType = "alphabet"
	TourTypeStairs        TourType = "stairs"
	TourTypeLetter        TourType = "letter"
	TourTypeNLetters      TourType = "n_letters"
	TourTypeMiraclesField TourType = "miracles_field"
	TourTypeChain         TourType = "chain"
)

var TourTypes = []TourType{
	TourTypeRegular,
	TourTypeAlphabet,
	TourTypeStairs,
	TourTypeLetter,
	TourTypeNLetters,
	TourTypeMiraclesField,
	TourTypeChain,
}

func (t TourType) IsValid() bool {
	for _, tourType := range TourTypes {
		if tourType == t {
			return true
		}
	}
	return false
}

const (
	DefaultTourImageURL       = "/images/quiz_tours/default.png"
	DefaultTourCreator        = "system"
	TourQuestionAnswerSeconds = 45
)

// Tour is a fixed, shared sequence of tour questions
type Tour struct {
	TourID      int       `bson:"quiz_tour_id" json:"quiz_tour_id"`
	Type        TourType  `bson:"quiz_tour_type" json:"quiz_tour_type"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	QuestionIDs []int     `bson:"question_ids" json:"question_ids"`
	ImageURL    string    `bson:"image_url" json:"image_url"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	CreatedBy   string    `bson:"created_by" json:"created_by"`
	Tags        []string  `bson:"tags" json:"tags"`
}

// TourParams describes the tour being generated
type TourParams struct {
	Name        string
	Description string
	ImageURL    string
	Tags        []string
}

// TourQuestion is a question frozen into a tour
type TourQuestion struct {
	QuestionID int      `bson:"question_id" json:"question_id"`
	Question   Question `bson:"question" json:"question"`
	AnswerTime float64  `bson:"answer_time" json:"answer_time"`
}

// TourAnswer is a user's answer to one tour question
type TourAnswer struct {
	QuestionID int       `bson:"question_id" json:"question_id"`
	Username   string    `bson:"username" json:"username"`
	Correct    bool      `bson:"correct" json:"correct"`
	AnswerTime float64   `bson:"answer_time" json:"answer_time"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// TourTimes sums answer latencies by verdict
type TourTimes struct {
	Correct   float64 `json:"correct"`
	Incorrect float64 `json:"incorrect"`
	Total     float64 `json:"total"`
}

// TourStatus summarizes a user's progress in a tour and the tour's
// overall results.
type TourStatus struct {
	Correct           int       `json:"correct"`
	Incorrect         int       `json:"incorrect"`
	Lost              int       `json:"lost"`
	Total             int       `json:"total"`
	CorrectPercents   float64   `json:"correct_percents"`
	IncorrectPercents float64   `json:"incorrect_percents"`
	Time              TourTimes `json:"time"`
	FinishedCount     int       `json:"finished_count"`
	MeanScore         float64   `json:"mean_score"`
}

// TourRating is a user's decayed mean score over completed tours
type TourRating struct {
	Username string  `json:"username"`
	Rating   float64 `json:"rating"`
	Count    int     `json:"count"`
}

// KnowledgeScale is a user's answer record for one movie
type KnowledgeScale struct {
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Scale     float64 `json:"scale"`
}
