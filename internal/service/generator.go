package service

import (
	"math/rand"
	"time"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
)

// defaultOptionCount is the option set size for single-kana rounds. Phrase
// rounds enlarge it to phrase length + 3.
const defaultOptionCount = 4

const phraseExtraOptions = 3

// Generator builds rounds: it picks a target honoring the session's
// no-repeat window, decides the prompt and answer scripts, and assembles a
// shuffled option set with distinct rendered texts.
type Generator struct {
	alphabet []*entities.KanaEntry // single-kana entries, distractor source for phrase slots
	rng      *rand.Rand
}

// NewGenerator creates a generator over the single-kana alphabet.
func NewGenerator(alphabet []*entities.KanaEntry) *Generator {
	return NewSeededGenerator(alphabet, time.Now().UnixNano())
}

// NewSeededGenerator creates a generator with a fixed seed. Used in tests.
func NewSeededGenerator(alphabet []*entities.KanaEntry, seed int64) *Generator {
	return &Generator{
		alphabet: alphabet,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// NextQuestion picks a target from pool and builds its round. Keys already
// in exclude are skipped; once the window covers the whole pool it is
// cleared so a fresh cycle can begin instead of deadlocking.
func (g *Generator) NextQuestion(pool []*entities.KanaEntry, cfg entities.DifficultyConfig, exclude map[string]struct{}) *entities.Round {
	if len(pool) == 0 {
		return nil
	}

	candidates := make([]*entities.KanaEntry, 0, len(pool))
	for _, e := range pool {
		if _, used := exclude[e.Key()]; !used {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		for k := range exclude {
			delete(exclude, k)
		}
		candidates = pool
	}

	target := candidates[g.rng.Intn(len(candidates))]
	exclude[target.Key()] = struct{}{}

	promptScript := g.pickPromptScript(cfg)
	answerScript := g.pickAnswerScript(cfg, promptScript)

	round := &entities.Round{
		PromptText:   target.Text(promptScript),
		PromptScript: promptScript,
		AnswerScript: answerScript,
		CorrectKey:   target.Key(),
		Entry:        target,
	}

	if cfg.PhraseLength > 1 {
		round.Slots, round.Options = g.buildPhraseOptions(target, answerScript)
	} else {
		answer := target.Text(answerScript)
		round.Slots = []string{answer}
		round.Options = g.buildOptions(answer, pool, answerScript, defaultOptionCount)
	}
	return round
}

// NextBlankQuestion builds a chart fill-in round for the hidden cell. The
// prompt is the cell's transliteration, the options primary-form kana.
func (g *Generator) NextBlankQuestion(target *entities.KanaEntry, pool []*entities.KanaEntry) *entities.Round {
	answer := target.Text(entities.ScriptHiragana)
	return &entities.Round{
		PromptText:   target.Text(entities.ScriptRomaji),
		PromptScript: entities.ScriptRomaji,
		AnswerScript: entities.ScriptHiragana,
		CorrectKey:   target.Key(),
		Entry:        target,
		Slots:        []string{answer},
		Options:      g.buildOptions(answer, pool, entities.ScriptHiragana, defaultOptionCount),
	}
}

// NewPairDeck samples pairs distinct entries from pool and lays out a
// shuffled deck with one card per script face.
func (g *Generator) NewPairDeck(pool []*entities.KanaEntry, pairs int, a, b entities.Script) []entities.Card {
	picked := make([]*entities.KanaEntry, len(pool))
	copy(picked, pool)
	g.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if pairs < len(picked) {
		picked = picked[:pairs]
	}

	deck := make([]entities.Card, 0, 2*len(picked))
	for _, e := range picked {
		deck = append(deck,
			entities.Card{Key: e.Key(), Script: a, Text: e.Text(a)},
			entities.Card{Key: e.Key(), Script: b, Text: e.Text(b)},
		)
	}
	g.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// SampleKeys returns n keys drawn without replacement, in random order.
// When n exceeds the available keys the whole set is returned.
func (g *Generator) SampleKeys(keys []string, n int) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// PickKey returns one key uniformly at random, or "" for an empty set.
func (g *Generator) PickKey(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return keys[g.rng.Intn(len(keys))]
}

// pickPromptScript draws the question face: the primary script with
// probability cfg.PrimaryBias, otherwise one of the level's alternates.
func (g *Generator) pickPromptScript(cfg entities.DifficultyConfig) entities.Script {
	if len(cfg.PromptAlternates) == 0 || g.rng.Float64() < cfg.PrimaryBias {
		return entities.ScriptHiragana
	}
	return cfg.PromptAlternates[g.rng.Intn(len(cfg.PromptAlternates))]
}

// pickAnswerScript draws the answer script from the level's candidates,
// never the prompt script itself.
func (g *Generator) pickAnswerScript(cfg entities.DifficultyConfig, prompt entities.Script) entities.Script {
	candidates := make([]entities.Script, 0, len(cfg.AnswerScripts))
	for _, s := range cfg.AnswerScripts {
		if s != prompt {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		if prompt == entities.ScriptHiragana {
			return entities.ScriptKatakana
		}
		return entities.ScriptHiragana
	}
	return candidates[g.rng.Intn(len(candidates))]
}

// buildOptions assembles up to k option texts including the correct answer,
// with no two options rendering identical text. When the pool cannot supply
// k distinct texts the set shrinks instead of erroring.
func (g *Generator) buildOptions(correct string, pool []*entities.KanaEntry, script entities.Script, k int) []string {
	seen := map[string]struct{}{correct: {}}
	distractors := make([]string, 0, k-1)
	for _, e := range pool {
		text := e.Text(script)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		distractors = append(distractors, text)
	}

	g.rng.Shuffle(len(distractors), func(i, j int) {
		distractors[i], distractors[j] = distractors[j], distractors[i]
	})
	if len(distractors) > k-1 {
		distractors = distractors[:k-1]
	}

	options := append([]string{correct}, distractors...)
	g.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return options
}

// buildPhraseOptions splits the answer rendering of a phrase into one slot
// per character and pads the option set with distractor characters drawn
// from the alphabet, k = len(phrase)+3.
func (g *Generator) buildPhraseOptions(target *entities.KanaEntry, script entities.Script) (slots []string, options []string) {
	for _, r := range target.Text(script) {
		slots = append(slots, string(r))
	}

	k := len(slots) + phraseExtraOptions
	seen := make(map[string]struct{}, k)
	for _, s := range slots {
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			options = append(options, s)
		}
	}

	distractors := make([]string, 0, len(g.alphabet))
	for _, e := range g.alphabet {
		text := e.Text(script)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		distractors = append(distractors, text)
	}
	g.rng.Shuffle(len(distractors), func(i, j int) {
		distractors[i], distractors[j] = distractors[j], distractors[i]
	})
	for _, d := range distractors {
		if len(options) >= k {
			break
		}
		options = append(options, d)
	}

	g.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return slots, options
}
