// Package repository provides access to the static kana dataset and to the
// persisted game state (score boards, unlock levels).
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
)

var (
	ErrEntryNotFound = errors.New("kana entry not found")
	ErrEmptyDataset  = errors.New("kana dataset is empty")
)

// KanaRepository is the read-only content repository: the gojuon entries,
// the chart layout, and the multi-character word banks. Loaded once at
// startup and never mutated.
type KanaRepository struct {
	entries  []*entities.KanaEntry
	byKey    map[string]*entities.KanaEntry
	layout   [][]string
	playable []string
	phrases  map[int][]*entities.KanaEntry
}

// kanaFile is the on-disk shape of the dataset. Layout rows use empty
// strings for the structural holes of the chart (the ya and wa rows).
type kanaFile struct {
	Kana   []*entities.KanaEntry            `json:"kana"`
	Layout [][]string                       `json:"layout"`
	Words  map[string][]*entities.KanaEntry `json:"words"`
}

// NewKanaRepository loads and validates the dataset from a JSON file.
// Malformed entries and layout cells without a matching record are logged
// and excluded rather than failing the load.
func NewKanaRepository(path string, log *zap.Logger) (*KanaRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file kanaFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kana JSON: %w", err)
	}

	r := &KanaRepository{
		byKey:   make(map[string]*entities.KanaEntry),
		layout:  file.Layout,
		phrases: make(map[int][]*entities.KanaEntry),
	}

	for _, e := range file.Kana {
		if e.Hiragana == "" || e.Katakana == "" || e.Romaji == "" {
			log.Warn("skipping malformed kana entry",
				zap.String("hiragana", e.Hiragana))
			continue
		}
		if _, dup := r.byKey[e.Hiragana]; dup {
			continue
		}
		r.byKey[e.Hiragana] = e
		r.entries = append(r.entries, e)
	}
	if len(r.entries) == 0 {
		return nil, ErrEmptyDataset
	}

	// Layout cells without a dataset record are unplayable, not fatal.
	for _, row := range file.Layout {
		for _, cell := range row {
			if cell == "" {
				continue
			}
			if _, ok := r.byKey[cell]; !ok {
				log.Warn("layout cell has no kana entry", zap.String("cell", cell))
				continue
			}
			r.playable = append(r.playable, cell)
		}
	}

	for lengthKey, words := range file.Words {
		length, err := strconv.Atoi(lengthKey)
		if err != nil || length < 2 {
			log.Warn("skipping word bank with bad length key", zap.String("key", lengthKey))
			continue
		}
		for _, w := range words {
			if w.Hiragana == "" || w.Katakana == "" {
				log.Warn("skipping malformed word entry", zap.String("hiragana", w.Hiragana))
				continue
			}
			r.phrases[length] = append(r.phrases[length], w)
		}
	}

	return r, nil
}

// Entries returns all valid single-kana entries.
func (r *KanaRepository) Entries() []*entities.KanaEntry { return r.entries }

// ByKey retrieves an entry by its primary form.
func (r *KanaRepository) ByKey(key string) (*entities.KanaEntry, bool) {
	e, ok := r.byKey[key]
	return e, ok
}

// Layout returns the chart grid; empty cells mark structural holes.
func (r *KanaRepository) Layout() [][]string { return r.layout }

// PlayableCells returns the keys of layout cells backed by a dataset record,
// in chart order.
func (r *KanaRepository) PlayableCells() []string {
	out := make([]string, len(r.playable))
	copy(out, r.playable)
	return out
}

// PhrasePool returns the word bank for the given phrase length, or nil.
func (r *KanaRepository) PhrasePool(length int) []*entities.KanaEntry {
	return r.phrases[length]
}
