package data

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// PadToken is the reserved token at vocabulary index 0.
const PadToken = "<pad>"

// Vocabulary maps between token strings and their compact indexes.
// Index 0 is always the padding token.
type Vocabulary struct {
	tokens []string
	index  map[string]int
}

// NewVocabulary returns a vocabulary containing only the pad token.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		tokens: []string{PadToken},
		index:  map[string]int{PadToken: 0},
	}
}

// Add returns the index for token, assigning the next free one if the
// token is new.
func (v *Vocabulary) Add(token string) int {
	if id, ok := v.index[token]; ok {
		return id
	}
	id := len(v.tokens)
	v.tokens = append(v.tokens, token)
	v.index[token] = id
	return id
}

// Lookup returns the index for token.
func (v *Vocabulary) Lookup(token string) (int, bool) {
	id, ok := v.index[token]
	return id, ok
}

// Token returns the token at index id.
func (v *Vocabulary) Token(id int) (string, bool) {
	if id < 0 || id >= len(v.tokens) {
		return "", false
	}
	return v.tokens[id], true
}

// Tokens returns all tokens in index order. Callers must not mutate
// the slice.
func (v *Vocabulary) Tokens() []string {
	return v.tokens
}

// Size returns the number of tokens including the pad token.
func (v *Vocabulary) Size() int {
	return len(v.tokens)
}

// Save writes the vocabulary as one token per line, line number equal
// to index. Tokens are quoted so BPE pieces containing newlines or
// spaces survive the line format.
func (v *Vocabulary) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create vocabulary file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, token := range v.tokens {
		if _, err := fmt.Fprintln(w, strconv.Quote(token)); err != nil {
			return fmt.Errorf("failed to write vocabulary: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write vocabulary: %w", err)
	}
	return nil
}

// LoadVocabulary reads a vocab.txt written by Save. Unquoted lines are
// accepted verbatim, so hand-written plain-token files load too. The
// first line must be the pad token.
func LoadVocabulary(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary file: %w", err)
	}
	defer f.Close()

	v := &Vocabulary{index: make(map[string]int)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		token, err := strconv.Unquote(line)
		if err != nil {
			token = line
		}
		if _, ok := v.index[token]; ok {
			return nil, fmt.Errorf("%w: duplicate token %q at line %d", ErrConfig, token, len(v.tokens))
		}
		v.index[token] = len(v.tokens)
		v.tokens = append(v.tokens, token)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	if len(v.tokens) == 0 {
		return nil, fmt.Errorf("%w: vocabulary file is empty", ErrConfig)
	}
	if v.tokens[0] != PadToken {
		return nil, fmt.Errorf("%w: vocabulary line 0 is %q, expected %q", ErrConfig, v.tokens[0], PadToken)
	}
	return v, nil
}
