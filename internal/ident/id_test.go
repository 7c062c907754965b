package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCorrelationIDIsUnique(t *testing.T) {
	a := NewCorrelationID()
	b := NewCorrelationID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestNewHexIDIsUnique(t *testing.T) {
	a := NewHexID()
	b := NewHexID()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
