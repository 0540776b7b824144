// Package types holds the shared domain objects of the Synapse Engine:
// phrases, candidates, nodes, edges, clusters, and the two output artifacts.
// Every object here is immutable once constructed; the orchestrator owns
// their lifecycle for the duration of a single run.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Phrase is a normalized search query tied to a language and market.
// Its identity is a hash over (normalized text, language, market) and is
// stable across runs given the same inputs.
type Phrase struct {
	Text     string // normalized: lowercased, whitespace-collapsed
	Language string
	Market   string
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizePhrase lowercases and collapses whitespace in raw phrase text.
func NormalizePhrase(raw string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.ToLower(raw), " "))
}

// NewPhrase builds a Phrase from raw text, normalizing it first.
func NewPhrase(raw, language, market string) Phrase {
	return Phrase{
		Text:     NormalizePhrase(raw),
		Language: strings.ToLower(strings.TrimSpace(language)),
		Market:   strings.ToLower(strings.TrimSpace(market)),
	}
}

// ID returns the stable identity hash for this phrase: sha256 over the
// normalized text, language, and market, joined by unit separators so that
// no combination of fields can collide with another.
func (p Phrase) ID() string {
	h := sha256.New()
	h.Write([]byte(p.Text))
	h.Write([]byte{0x1f})
	h.Write([]byte(p.Language))
	h.Write([]byte{0x1f})
	h.Write([]byte(p.Market))
	return hex.EncodeToString(h.Sum(nil))
}

// Tokens splits the normalized phrase into whitespace-delimited tokens.
func (p Phrase) Tokens() []string {
	if p.Text == "" {
		return nil
	}
	return strings.Split(p.Text, " ")
}

// HeadTerm returns the first token of the phrase, or "" if empty.
func (p Phrase) HeadTerm() string {
	toks := p.Tokens()
	if len(toks) == 0 {
		return ""
	}
	return toks[0]
}

// Modifiers returns every token after the head term.
func (p Phrase) Modifiers() []string {
	toks := p.Tokens()
	if len(toks) <= 1 {
		return nil
	}
	return toks[1:]
}
