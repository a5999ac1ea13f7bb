package util

import (
	"regexp"
	"strings"
)

var (
	nameLetterRegex    = regexp.MustCompile(`[a-zа-яё\d]`)
	miraclesFieldRegex = regexp.MustCompile(`^[a-zа-яё\d]+(\s+[a-zа-яё\d]+)?$`)
	nonWordRegex       = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// NameLetters returns the latin, cyrillic and digit characters of the
// lowercased name in order.
func NameLetters(name string) []string {
	return nameLetterRegex.FindAllString(strings.ToLower(name), -1)
}

// FirstLetter returns the first name letter or "" when there is none
func FirstLetter(name string) string {
	letters := NameLetters(name)
	if len(letters) == 0 {
		return ""
	}
	return letters[0]
}

// LastLetter returns the last name letter or "" when there is none
func LastLetter(name string) string {
	letters := NameLetters(name)
	if len(letters) == 0 {
		return ""
	}
	return letters[len(letters)-1]
}

// NameLength counts the name letters, ignoring spaces and punctuation
func NameLength(name string) int {
	return len(NameLetters(name))
}

// IsMiraclesFieldName reports whether the name is one or two plain words
func IsMiraclesFieldName(name string) bool {
	return miraclesFieldRegex.MatchString(strings.ToLower(name))
}

// SimplifyName replaces every run of non-word characters with one space
func SimplifyName(name string) string {
	return nonWordRegex.ReplaceAllString(name, " ")
}
