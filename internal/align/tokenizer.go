package align

import (
	"fmt"
	"strings"
)

// MMSVocabulary lists the characters the MMS_FA acoustic model emits, in
// dictionary order after the blank token.
const MMSVocabulary = "aienoutsrmkldghybpwcvjzf'qx"

// Tokenizer splits normalized romanization into alignment tokens.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
	// Vocabulary returns every character Tokenize accepts, excluding spaces.
	Vocabulary() string
}

// CharTokenizer emits one token per character and skips spaces.
type CharTokenizer struct {
	vocab string
}

// NewCharTokenizer returns a tokenizer over vocab; an empty vocab selects MMSVocabulary.
func NewCharTokenizer(vocab string) CharTokenizer {
	if vocab == "" {
		vocab = MMSVocabulary
	}
	return CharTokenizer{vocab: vocab}
}

// Tokenize implements Tokenizer.
func (c CharTokenizer) Tokenize(text string) ([]string, error) {
	tokens := make([]string, 0, len(text))
	for _, r := range text {
		if r == ' ' {
			continue
		}
		if !strings.ContainsRune(c.Vocabulary(), r) {
			return nil, fmt.Errorf("tokenize %q: character %q not in vocabulary", text, r)
		}
		tokens = append(tokens, string(r))
	}
	return tokens, nil
}

// Vocabulary implements Tokenizer.
func (c CharTokenizer) Vocabulary() string {
	if c.vocab == "" {
		return MMSVocabulary
	}
	return c.vocab
}

// CountTokens returns the number of tokens the transcript words tokenize to.
func CountTokens(tok Tokenizer, words []string) (int, error) {
	total := 0
	for _, w := range words {
		tokens, err := tok.Tokenize(w)
		if err != nil {
			return 0, err
		}
		total += len(tokens)
	}
	return total, nil
}
