package tokens

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the cl100k_base vocabulary used by GPT-4 class models.
const DefaultEncoding = "cl100k_base"

// TiktokenWrapper counts tokens with an OpenAI BPE encoding.
type TiktokenWrapper struct {
	ttk *tiktoken.Tiktoken
}

// LoadTiktoken loads the named encoding. A model name such as "gpt-4o" is
// accepted as well.
func LoadTiktoken(encoding string) (*TiktokenWrapper, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		var modelErr error
		tke, modelErr = tiktoken.EncodingForModel(encoding)
		if modelErr != nil {
			return nil, fmt.Errorf("failed to get tiktoken encoding %q: %w", encoding, err)
		}
	}
	return &TiktokenWrapper{ttk: tke}, nil
}

// CountTokens implements Tokenizer. Special-token text is counted as
// ordinary text since book content is untrusted.
func (w *TiktokenWrapper) CountTokens(text string) (int, error) {
	if w.ttk == nil {
		return 0, fmt.Errorf("tiktoken encoding not loaded")
	}
	return len(w.ttk.EncodeOrdinary(text)), nil
}

// Close implements Tokenizer.
func (w *TiktokenWrapper) Close() {}
