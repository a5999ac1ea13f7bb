package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameLetters(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		first  string
		last   string
		length int
	}{
		{name: "cyrillic with punctuation", input: "Иван Васильевич меняет профессию!", first: "и", last: "ю", length: 29},
		{name: "latin and digits", input: "Ocean's 11", first: "o", last: "1", length: 8},
		{name: "yo is a letter", input: "Ёлки", first: "ё", last: "и", length: 4},
		{name: "no letters", input: "...", first: "", last: "", length: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.first, FirstLetter(tt.input))
			assert.Equal(t, tt.last, LastLetter(tt.input))
			assert.Equal(t, tt.length, NameLength(tt.input))
		})
	}
}

func TestIsMiraclesFieldName(t *testing.T) {
	assert.True(t, IsMiraclesFieldName("Брат"))
	assert.True(t, IsMiraclesFieldName("Брат 2"))
	assert.True(t, IsMiraclesFieldName("Star  Wars"))
	assert.False(t, IsMiraclesFieldName("Звёздные войны: Эпизод 4"))
	assert.False(t, IsMiraclesFieldName("Назад в будущее"))
	assert.False(t, IsMiraclesFieldName("Spider-Man"))
}

func TestSimplifyName(t *testing.T) {
	assert.Equal(t, "Spider Man Homecoming", SimplifyName("Spider-Man: Homecoming"))
	assert.Equal(t, "Брат 2", SimplifyName("Брат 2"))
}
