package domain

import (
	"slices"
	"strings"
)

// MovieType is the kind of a title in the catalogue
type MovieType string

const (
	MovieTypeMovie          MovieType = "movie"
	MovieTypeSeries         MovieType = "series"
	MovieTypeCartoon        MovieType = "cartoon"
	MovieTypeAnimatedSeries MovieType = "animated_series"
	MovieTypeAnime          MovieType = "anime"
)

// MovieTypes lists every movie type in display order
var MovieTypes = []MovieType{MovieTypeMovie, MovieTypeSeries, MovieTypeCartoon, MovieTypeAnimatedSeries, MovieTypeAnime}

// accusative noun used in question titles
var movieTypeNouns = map[MovieType]string{
	MovieTypeMovie:          "фильм",
	MovieTypeSeries:         "сериал",
	MovieTypeCartoon:        "мультфильм",
	MovieTypeAnimatedSeries: "мультсериал",
	MovieTypeAnime:          "аниме",
}

func (t MovieType) IsValid() bool {
	_, ok := movieTypeNouns[t]
	return ok
}

// Production is the production region of a title
type Production string

const (
	ProductionRussian Production = "russian"
	ProductionForeign Production = "foreign"
	ProductionTurkish Production = "turkish"
	ProductionKorean  Production = "korean"
)

var Productions = []Production{ProductionRussian, ProductionForeign, ProductionTurkish, ProductionKorean}

func (p Production) IsValid() bool {
	for _, production := range Productions {
		if production == p {
			return true
		}
	}
	return false
}

// Spoiler marks a [Start, End) rune span that must be masked
type Spoiler struct {
	Start int `bson:"start" json:"start"`
	End   int `bson:"end" json:"end"`
}

// SpoilerText is a text with precomputed spoiler spans
type SpoilerText struct {
	Text     string    `bson:"text" json:"text"`
	Spoilers []Spoiler `bson:"spoilers" json:"spoilers"`
}

// Actor links a person to a movie with the role description
type Actor struct {
	PersonID    int    `bson:"person_id" json:"person_id"`
	Description string `bson:"description" json:"description"`
}

var voiceMarkers = []string{"озвучка", "голос", "voice"}

// IsVoiceRole reports whether the role is voice-over only or has no
// character name at all.
func (a Actor) IsVoiceRole() bool {
	description := strings.ToLower(strings.TrimSpace(a.Description))
	if description == "" {
		return true
	}
	for _, marker := range voiceMarkers {
		if strings.Contains(description, marker) {
			return true
		}
	}
	return false
}

// Person is a cast member profile
type Person struct {
	PersonID int    `bson:"person_id" json:"person_id"`
	Name     string `bson:"name" json:"name"`
	PhotoURL string `bson:"photo_url" json:"photo_url"`
}

type Rating struct {
	RatingKP float64 `bson:"rating_kp" json:"rating_kp"`
	VotesKP  int     `bson:"votes_kp" json:"votes_kp"`
}

// Movie is the full catalogue record a question is generated from
type Movie struct {
	MovieID          int           `bson:"movie_id" json:"movie_id"`
	Name             string        `bson:"name" json:"name"`
	MovieType        MovieType     `bson:"movie_type" json:"movie_type"`
	Year             int           `bson:"year" json:"year"`
	Slogan           string        `bson:"slogan" json:"slogan"`
	Description      SpoilerText   `bson:"description" json:"description"`
	ShortDescription SpoilerText   `bson:"short_description" json:"short_description"`
	Production       []Production  `bson:"production" json:"production"`
	Actors           []Actor       `bson:"actors" json:"actors"`
	Rating           Rating        `bson:"rating" json:"rating"`
	ImageURLs        []string      `bson:"image_urls" json:"image_urls"`
	PosterURL        string        `bson:"poster_url" json:"poster_url"`
	BannerURL        *string       `bson:"banner_url" json:"banner_url"`
	Facts            []SpoilerText `bson:"facts" json:"facts"`
}

// MovieSummary is the projection of a movie used while sampling
type MovieSummary struct {
	MovieID    int          `bson:"movie_id" json:"movie_id"`
	Name       string       `bson:"name" json:"name"`
	MovieType  MovieType    `bson:"movie_type" json:"movie_type"`
	Production []Production `bson:"production" json:"production"`
	Year       int          `bson:"year" json:"year"`
}

// MainProduction returns the first production region or an empty value
func (m MovieSummary) MainProduction() Production {
	if len(m.Production) == 0 {
		return ""
	}
	return m.Production[0]
}

const minCharacters = 3

// QuestionTypes returns the question variants this movie has content for
func (m *Movie) QuestionTypes() []QuestionType {
	var types []QuestionType
	if m.Slogan != "" {
		types = append(types, QuestionTypeBySlogan)
	}
	if m.ShortDescription.Text != "" {
		types = append(types, QuestionTypeByShortDescription)
	}
	if m.Description.Text != "" {
		types = append(types, QuestionTypeByDescription)
	}
	if len(m.ImageURLs) > 0 {
		types = append(types, QuestionTypeByImage)
	}
	if len(m.Actors) > 0 {
		types = append(types, QuestionTypeByActors)
	}
	if len(m.Characters()) >= minCharacters {
		types = append(types, QuestionTypeByCharacters)
	}
	return types
}

// SupportsQuestionType reports whether the movie has the content a
// question of the type shows
func (m *Movie) SupportsQuestionType(questionType QuestionType) bool {
	return slices.Contains(m.QuestionTypes(), questionType)
}

// Characters returns distinct character names in billing order, skipping
// voice-over roles.
func (m *Movie) Characters() []string {
	seen := make(map[string]struct{})
	var characters []string
	for _, actor := range m.Actors {
		if actor.IsVoiceRole() {
			continue
		}
		if _, ok := seen[actor.Description]; ok {
			continue
		}
		seen[actor.Description] = struct{}{}
		characters = append(characters, actor.Description)
	}
	return characters
}

func (m *Movie) QuestionTitle(suffix string) string {
	noun, ok := movieTypeNouns[m.MovieType]
	if !ok {
		noun = movieTypeNouns[MovieTypeMovie]
	}
	return "Угадайте " + noun + suffix
}

func (m *Movie) QuestionAnswer() string {
	return m.Name
}

// RandomImageURL picks an image uniformly. Returns "" for a movie without images.
func (m *Movie) RandomImageURL(rng interface{ IntN(n int) int }) string {
	if len(m.ImageURLs) == 0 {
		return ""
	}
	return m.ImageURLs[rng.IntN(len(m.ImageURLs))]
}

// HasImage reports whether url is still one of the movie images
func (m *Movie) HasImage(url string) bool {
	for _, imageURL := range m.ImageURLs {
		if imageURL == url {
			return true
		}
	}
	return false
}

func (m *Movie) Summary() MovieSummary {
	return MovieSummary{
		MovieID:    m.MovieID,
		Name:       m.Name,
		MovieType:  m.MovieType,
		Production: m.Production,
		Year:       m.Year,
	}
}
