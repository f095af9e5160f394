package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	assert := assert.New(t)

	t.Run("creator order is irrelevant", func(t *testing.T) {
		a := ID("DEGEN", []string{"b", "a"})
		b := ID("DEGEN", []string{"a", "b"})
		assert.Equal(a, b)
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(ID("DEGEN", []string{"a", "b"}), ID("DEGEN", []string{"a", "b"}))
	})

	t.Run("different symbol differs", func(t *testing.T) {
		assert.NotEqual(ID("DEGEN", []string{"a", "b"}), ID("APE", []string{"a", "b"}))
	})

	t.Run("different creator set differs", func(t *testing.T) {
		assert.NotEqual(ID("DEGEN", []string{"a", "b"}), ID("DEGEN", []string{"a", "c"}))
		assert.NotEqual(ID("DEGEN", []string{"a", "b"}), ID("DEGEN", []string{"a"}))
	})

	t.Run("no creators", func(t *testing.T) {
		assert.NotEmpty(ID("DEGEN", nil))
	})
}

func TestSortedCreators(t *testing.T) {
	assert := assert.New(t)

	input := []string{"c", "a", "b"}
	sorted := SortedCreators(input)

	assert.Equal([]string{"a", "b", "c"}, sorted)
	assert.Equal([]string{"c", "a", "b"}, input)
}
