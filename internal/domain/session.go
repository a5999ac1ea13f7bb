package domain

import "time"

// collective verdict threshold for a multiplayer question
const sessionCorrectShare = 0.4

// Session is a multiplayer game where every player answers the same
// question before the next one is drawn.
type Session struct {
	SessionID        string              `bson:"session_id" json:"session_id"`
	CreatedBy        string              `bson:"created_by" json:"created_by"`
	CreatedAt        time.Time           `bson:"created_at" json:"created_at"`
	Players          []string            `bson:"players" json:"players"`
	Question         *Question           `bson:"question" json:"question"`
	Answers          map[string]Answer   `bson:"answers" json:"answers"`
	Questions        []Question          `bson:"questions" json:"-"`
	Statistics       map[string][]Answer `bson:"statistics" json:"statistics"`
	QuestionSettings *QuestionSettings   `bson:"question_settings" json:"question_settings"`
}

func NewSession(sessionID, username string) *Session {
	return &Session{
		SessionID:        sessionID,
		CreatedBy:        username,
		CreatedAt:        time.Now(),
		Players:          []string{},
		Answers:          map[string]Answer{},
		Statistics:       map[string][]Answer{},
		QuestionSettings: DefaultQuestionSettings(),
	}
}

func (s *Session) HasPlayer(username string) bool {
	for _, player := range s.Players {
		if player == username {
			return true
		}
	}
	return false
}

// AddPlayer adds the player once and reports whether it was new
func (s *Session) AddPlayer(username string) bool {
	if s.HasPlayer(username) {
		return false
	}
	s.Players = append(s.Players, username)
	return true
}

func (s *Session) RemovePlayer(username string) {
	players := s.Players[:0]
	for _, player := range s.Players {
		if player != username {
			players = append(players, player)
		}
	}
	s.Players = players
	delete(s.Answers, username)
}

// AddAnswer stores the player's answer to the current question
func (s *Session) AddAnswer(username string, answer Answer) {
	if s.Question == nil || !s.HasPlayer(username) {
		return
	}
	if s.Answers == nil {
		s.Answers = map[string]Answer{}
	}
	s.Answers[username] = answer
}

// AllAnswered reports whether every connected player answered
func (s *Session) AllAnswered() bool {
	for _, player := range s.Players {
		if _, ok := s.Answers[player]; !ok {
			return false
		}
	}
	return true
}

// SetQuestion starts a new round
func (s *Session) SetQuestion(question *Question) {
	s.Question = question
	s.Answers = map[string]Answer{}
}

// CollectiveAnswer is correct when more than 40% of the answers are correct
func (s *Session) CollectiveAnswer() Answer {
	correct := 0
	for _, answer := range s.Answers {
		if answer.Correct {
			correct++
		}
	}
	return Answer{Correct: float64(correct) > float64(len(s.Answers))*sessionCorrectShare}
}

// CloseRound moves the current question into the session history and
// appends every player's answer to the statistics. History is kept most
// recent first, as the sampler expects.
func (s *Session) CloseRound() {
	if s.Question == nil {
		return
	}
	if s.Statistics == nil {
		s.Statistics = map[string][]Answer{}
	}
	for username, answer := range s.Answers {
		s.Statistics[username] = append(s.Statistics[username], answer)
	}

	question := s.Question.Clone()
	question.Username = ""
	question.SetAnswer(s.CollectiveAnswer())
	s.Questions = append([]Question{*question}, s.Questions...)
	s.Question = nil
	s.Answers = map[string]Answer{}
}

// UpdateSettings replaces the session settings and reports whether they
// changed.
func (s *Session) UpdateSettings(settings *QuestionSettings) bool {
	if s.QuestionSettings.Equal(settings) {
		return false
	}
	s.QuestionSettings = settings
	return true
}

// ClearStatistics resets per-player statistics, keeping the question history
func (s *Session) ClearStatistics() {
	s.Statistics = map[string][]Answer{}
}
