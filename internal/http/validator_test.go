package http

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct_BookInput(t *testing.T) {
	t.Run("valid input has no details", func(t *testing.T) {
		details := ValidateStruct(bookInput{Name: "Dune", Description: "Sci-fi"})
		assert.Nil(t, details)
	})

	t.Run("missing fields", func(t *testing.T) {
		details := ValidateStruct(bookInput{})
		require.Len(t, details, 2)
		assert.Equal(t, "name", details[0].Field)
		assert.Equal(t, "name is required", details[0].Message)
		assert.Equal(t, "description", details[1].Field)
	})

	t.Run("length bounds", func(t *testing.T) {
		details := ValidateStruct(bookInput{
			Name:        strings.Repeat("a", 101),
			Description: strings.Repeat("b", 501),
		})
		require.Len(t, details, 2)
		assert.Equal(t, "name cannot exceed 100 characters", details[0].Message)
		assert.Equal(t, "description cannot exceed 500 characters", details[1].Message)
	})

	t.Run("boundary lengths pass", func(t *testing.T) {
		details := ValidateStruct(bookInput{
			Name:        strings.Repeat("a", 100),
			Description: strings.Repeat("b", 500),
		})
		assert.Nil(t, details)
	})
}
