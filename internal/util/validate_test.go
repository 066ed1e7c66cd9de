package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{"admin@x.com", "first.last+tag@agency.co.uk"}
	invalid := []string{"", "admin", "admin@x", "ad min@x.com", "@x.com"}

	for _, e := range valid {
		assert.True(t, IsValidEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, IsValidEmail(e), e)
	}
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+91 (22) 555-0100"))
	assert.False(t, IsValidPhone("call me"))
	assert.False(t, IsValidPhone(""))
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Jane", Clean("  Jane  ", 100))
	assert.Equal(t, "abc", Clean("abcdef", 3))
	assert.Equal(t, "éé", Clean("ééé", 2))
	assert.Equal(t, "unbounded", Clean("unbounded", 0))
}
