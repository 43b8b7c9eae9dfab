// Package entities contains domain entities used across the application.
package entities

// Script identifies which written representation of an entry is shown
// as a question face or expected in an answer.
type Script string

const (
	ScriptHiragana Script = "hiragana" // primary form
	ScriptKatakana Script = "katakana" // secondary form
	ScriptRomaji   Script = "romaji"   // transliteration
)

// KanaEntry represents a single gojuon character together with its alternate
// script, transliteration and the example word shown as a reward on a correct
// answer. Multi-character entries from the word banks reuse the same shape
// with the phrase stored in the two kana fields.
type KanaEntry struct {
	Hiragana string `json:"hiragana"` // primary form, unique key
	Katakana string `json:"katakana"` // secondary form
	Romaji   string `json:"romaji"`   // transliteration, empty for phrase entries
	Word     string `json:"word"`     // example word
	Meaning  string `json:"meaning"`  // gloss of the example word
}

// Key returns the unique key of the entry (its primary form).
func (e *KanaEntry) Key() string { return e.Hiragana }

// Text renders the entry in the given script. An empty string means the
// entry has no representation in that script.
func (e *KanaEntry) Text(s Script) string {
	switch s {
	case ScriptKatakana:
		return e.Katakana
	case ScriptRomaji:
		return e.Romaji
	default:
		return e.Hiragana
	}
}
