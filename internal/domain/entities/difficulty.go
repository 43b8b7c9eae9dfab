package entities

import "time"

// GameMode identifies one of the mini-games.
type GameMode string

const (
	ModeMatchSound GameMode = "match-sound" // kana card vs. sound card pairs
	ModeMatchKana  GameMode = "match-kana"  // hiragana vs. katakana pairs
	ModeRally      GameMode = "rally"       // timed volleyball quiz
	ModeFillBlanks GameMode = "fill-blanks" // gojuon chart fill-in
)

// Valid reports whether the mode names a known mini-game.
func (m GameMode) Valid() bool {
	switch m {
	case ModeMatchSound, ModeMatchKana, ModeRally, ModeFillBlanks:
		return true
	}
	return false
}

// Leveled reports whether the mode is partitioned into unlockable levels.
func (m GameMode) Leveled() bool {
	return m == ModeRally || m == ModeMatchKana
}

// DifficultyConfig describes one level of a leveled mode: its time budget,
// the probability of using the primary script as the question face, the
// alternate scripts admitted when that draw fails, and the scripts an answer
// may be asked in. PhraseLength > 1 marks multi-character word tiers.
type DifficultyConfig struct {
	Level            int
	TimeBudget       time.Duration // per-question budget, zero means untimed
	PrimaryBias      float64       // probability of the primary script as prompt
	OpponentLabel    string        // rally opponent team, empty outside rally
	PhraseLength     int           // characters per answer, 1 for single kana
	PromptAlternates []Script      // prompt scripts used when the bias draw fails
	AnswerScripts    []Script      // answer script candidates, prompt excluded at pick time
}

// rallyLevels carries the per-level primary-script bias (1.0, 0.75, 0.5, 0.25)
// and shrinking time budgets. Levels 2-4 draw from the word banks, so their
// script sets stay within the two kana scripts; the banks carry no
// transliteration.
var rallyLevels = []DifficultyConfig{
	{
		Level:         1,
		TimeBudget:    10 * time.Second,
		PrimaryBias:   1.0,
		OpponentLabel: "音駒",
		PhraseLength:  1,
		AnswerScripts: []Script{ScriptKatakana},
	},
	{
		Level:            2,
		TimeBudget:       8 * time.Second,
		PrimaryBias:      0.75,
		OpponentLabel:    "青葉城西",
		PhraseLength:     2,
		PromptAlternates: []Script{ScriptKatakana},
		AnswerScripts:    []Script{ScriptHiragana, ScriptKatakana},
	},
	{
		Level:            3,
		TimeBudget:       6 * time.Second,
		PrimaryBias:      0.5,
		OpponentLabel:    "白鳥沢",
		PhraseLength:     3,
		PromptAlternates: []Script{ScriptKatakana},
		AnswerScripts:    []Script{ScriptHiragana, ScriptKatakana},
	},
	{
		Level:            4,
		TimeBudget:       5 * time.Second,
		PrimaryBias:      0.25,
		OpponentLabel:    "稲荷崎",
		PhraseLength:     4,
		PromptAlternates: []Script{ScriptKatakana},
		AnswerScripts:    []Script{ScriptHiragana, ScriptKatakana},
	},
}

// matchKanaLevels are the pair-matching tiers: level 1 plays single kana,
// levels 2-4 play the word banks of growing length. Untimed.
var matchKanaLevels = []DifficultyConfig{
	{Level: 1, PhraseLength: 1},
	{Level: 2, PhraseLength: 2},
	{Level: 3, PhraseLength: 3},
	{Level: 4, PhraseLength: 4},
}

// RallyLevel returns the configuration of a rally level.
func RallyLevel(level int) (DifficultyConfig, bool) {
	if level < 1 || level > len(rallyLevels) {
		return DifficultyConfig{}, false
	}
	return rallyLevels[level-1], true
}

// MatchKanaLevel returns the configuration of a kana-matching level.
func MatchKanaLevel(level int) (DifficultyConfig, bool) {
	if level < 1 || level > len(matchKanaLevels) {
		return DifficultyConfig{}, false
	}
	return matchKanaLevels[level-1], true
}

// MaxLevel returns the highest level a mode offers. Modes without levels
// report 1.
func MaxLevel(mode GameMode) int {
	switch mode {
	case ModeRally:
		return len(rallyLevels)
	case ModeMatchKana:
		return len(matchKanaLevels)
	}
	return 1
}

// BlankDifficulty selects how much of the gojuon chart is hidden in the
// fill-in game.
type BlankDifficulty string

const (
	BlankEasy   BlankDifficulty = "easy"
	BlankMedium BlankDifficulty = "medium"
	BlankHard   BlankDifficulty = "hard"
)

// Valid reports whether the difficulty names a known tier.
func (d BlankDifficulty) Valid() bool {
	switch d {
	case BlankEasy, BlankMedium, BlankHard:
		return true
	}
	return false
}

// HideFraction returns the share of playable cells hidden for the tier.
func (d BlankDifficulty) HideFraction() float64 {
	switch d {
	case BlankEasy:
		return 0.25
	case BlankMedium:
		return 0.5
	case BlankHard:
		return 1.0
	}
	return 0
}
