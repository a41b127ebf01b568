package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCarPatch_IsEmpty(t *testing.T) {
	title := "Civic"

	assert.True(t, CarPatch{}.IsEmpty())
	assert.False(t, CarPatch{Title: &title}.IsEmpty())
}
