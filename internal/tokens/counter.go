// Package tokens counts LLM tokens in extracted text through a pluggable
// tokenizer backend.
package tokens

import (
	"fmt"
	"strings"

	"epubtokens/internal/config"
	"epubtokens/internal/errors"
)

// Tokenizer is implemented by the tokenizer backends.
type Tokenizer interface {
	CountTokens(text string) (int, error)
	Close()
}

// Func is the narrow form of a tokenizer injected into the batch processor.
type Func func(text string) (int, error)

// CountTokens implements Tokenizer.
func (f Func) CountTokens(text string) (int, error) { return f(text) }

// Close implements Tokenizer.
func (f Func) Close() {}

// Counter wraps a Tokenizer with the empty-text and failure rules shared by
// every backend.
type Counter struct {
	tokenizer Tokenizer
}

// NewCounter creates a Counter over t.
func NewCounter(t Tokenizer) *Counter {
	return &Counter{tokenizer: t}
}

// Count returns the number of tokens in text. Empty text is 0 tokens and
// never reaches the tokenizer. Backend errors, panics and negative counts
// are returned as *errors.TokenizationError.
func (c *Counter) Count(text string) (n int, err error) {
	if text == "" {
		return 0, nil
	}
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, errors.NewTokenizationError("", fmt.Errorf("tokenizer panic: %v", r))
		}
	}()

	n, err = c.tokenizer.CountTokens(text)
	if err != nil {
		return 0, errors.NewTokenizationError("", err)
	}
	if n < 0 {
		return 0, errors.NewTokenizationError("", fmt.Errorf("tokenizer returned negative count %d", n))
	}
	return n, nil
}

// Close releases the backend.
func (c *Counter) Close() {
	c.tokenizer.Close()
}

// Load builds the tokenizer selected by cfg.
func Load(cfg config.Tokenizer) (Tokenizer, error) {
	switch strings.ToLower(cfg.Type) {
	case config.TokenizerTiktoken, "":
		t, err := LoadTiktoken(cfg.Encoding)
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.TokenizerHuggingFace:
		t, err := LoadHuggingFace(cfg.File)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported tokenizer type: %s. Use 'tiktoken' or 'huggingface'", cfg.Type)
	}
}
