package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidUsername(t *testing.T) {
	valid := []string{"alice", "bob_2024", "år-tre", "ÅsaÖberg", "abc"}
	for _, u := range valid {
		assert.True(t, ValidUsername(u), u)
	}

	invalid := []string{"", "ab", "white space", "too_long_username_over_20", "semi;colon", "dot.name"}
	for _, u := range invalid {
		assert.False(t, ValidUsername(u), u)
	}
}

func TestSanitizeContent(t *testing.T) {
	assert.Equal(t, "a\nb", SanitizeContent("a\n\n\nb"))
	assert.Equal(t, "hello", SanitizeContent("  hello \n"))
}

func TestValidateContent(t *testing.T) {
	assert.Empty(t, ValidateContent("a fine post"))
	assert.NotEmpty(t, ValidateContent(""))
	assert.NotEmpty(t, ValidateContent("   "))
	assert.NotEmpty(t, ValidateContent(strings.Repeat("x", 501)))
	assert.NotEmpty(t, ValidateContent("a\nb\nc\nd\ne\nf\ng\nh"))

	// Exactly at the limits is fine.
	assert.Empty(t, ValidateContent(strings.Repeat("x", 500)))
	assert.Empty(t, ValidateContent("a\nb\nc\nd\ne\nf\ng"))
}
