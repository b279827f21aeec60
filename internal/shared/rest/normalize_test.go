package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveAccents(t *testing.T) {
	assert.Equal(t, "cafe", RemoveAccents("café"))
	assert.Equal(t, "Jose Nunez", RemoveAccents("José Núñez"))
	assert.Equal(t, "creme brulee", RemoveAccents("crème brûlée"))

	// ASCII puro es la identidad
	assert.Equal(t, "hello world", RemoveAccents("hello world"))
	assert.Equal(t, "", RemoveAccents(""))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "cafe", Fold("CAFÉ"))
	assert.Equal(t, "jose", Fold("José"))

	// Dos cadenas distintas solo por acentos y mayúsculas se pliegan igual
	assert.Equal(t, Fold("MÉLANIE"), Fold("melanie"))
}
