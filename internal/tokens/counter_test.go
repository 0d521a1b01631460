package tokens_test

import (
	"fmt"
	"strings"
	"testing"

	"epubtokens/internal/config"
	"epubtokens/internal/errors"
	"epubtokens/internal/tokens"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordCount(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func TestCount(t *testing.T) {
	c := tokens.NewCounter(tokens.Func(wordCount))

	n, err := c.Count("one two three")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = c.Count("one two three")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "count is deterministic")
}

func TestCountEmptyTextSkipsTokenizer(t *testing.T) {
	called := false
	c := tokens.NewCounter(tokens.Func(func(string) (int, error) {
		called = true
		return 99, nil
	}))

	n, err := c.Count("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, called)
}

func TestCountFailures(t *testing.T) {
	tests := []struct {
		name string
		fn   tokens.Func
	}{
		{"error", func(string) (int, error) { return 0, fmt.Errorf("bad input") }},
		{"panic", func(string) (int, error) { panic("index out of range") }},
		{"negative", func(string) (int, error) { return -1, nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := tokens.NewCounter(tt.fn).Count("text")
			require.Error(t, err)
			assert.Equal(t, 0, n)
			assert.True(t, errors.IsTokenization(err))
			assert.Equal(t, errors.TokenizerFailure, errors.ReasonOf(err))
		})
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := tokens.Load(config.Tokenizer{Type: "words"})
	assert.Error(t, err)

	_, err = tokens.Load(config.Tokenizer{Type: config.TokenizerHuggingFace})
	assert.Error(t, err)
}
