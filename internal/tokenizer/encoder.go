package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used when none is specified.
// cl100k_base is the GPT-4 / GPT-3.5-turbo vocabulary.
const DefaultEncoding = "cl100k_base"

// Encoder wraps the pkoukk/tiktoken-go library for BPE text encoding.
//
// Supported encodings:
//   - cl100k_base: GPT-4, GPT-3.5-turbo, text-embedding-ada-002
//   - p50k_base: GPT-3, Codex
//   - r50k_base: older GPT-3 models
type Encoder struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// New creates an Encoder with the specified encoding. The encoding
// table is fetched on first use and cached by the tiktoken library.
func New(encodingName string) (*Encoder, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &Encoder{encoding: encoding, name: encodingName}, nil
}

// NewDefault creates an Encoder with the default encoding.
func NewDefault() (*Encoder, error) {
	return New(DefaultEncoding)
}

// Encode converts text to BPE token ids.
func (e *Encoder) Encode(text string) []int {
	return e.encoding.Encode(text, nil, nil)
}

// Decode converts token ids back to text.
func (e *Encoder) Decode(tokens []int) string {
	return e.encoding.Decode(tokens)
}

// Name returns the encoding name.
func (e *Encoder) Name() string {
	return e.name
}
