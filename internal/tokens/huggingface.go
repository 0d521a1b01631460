package tokens

import (
	"fmt"

	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFTokenizerWrapper counts tokens with a HuggingFace tokenizer.json.
type HFTokenizerWrapper struct {
	htk *hf.Tokenizer
}

// LoadHuggingFace loads a tokenizer from a local tokenizer.json file.
func LoadHuggingFace(file string) (*HFTokenizerWrapper, error) {
	if file == "" {
		return nil, fmt.Errorf("huggingface tokenizer requires a tokenizer.json file")
	}
	htk, err := pretrained.FromFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer from file %s: %w", file, err)
	}
	return &HFTokenizerWrapper{htk: htk}, nil
}

// CountTokens implements Tokenizer.
func (w *HFTokenizerWrapper) CountTokens(text string) (int, error) {
	if w.htk == nil {
		return 0, fmt.Errorf("huggingface tokenizer not loaded")
	}
	en, err := w.htk.EncodeSingle(text)
	if err != nil {
		return 0, err
	}
	return len(en.Tokens), nil
}

// Close implements Tokenizer.
func (w *HFTokenizerWrapper) Close() {}
