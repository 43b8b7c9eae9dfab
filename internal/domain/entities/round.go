package entities

// Round is the transient state of a single question. It is created by the
// question generator when a round starts and discarded once the answer (or
// timeout) is scored.
//
// Single-kana rounds carry one slot; phrase rounds carry one slot per
// character of the answer, all filled from the same option set.
type Round struct {
	Seq          uint64    // round sequence number within the session
	PromptText   string    // question face shown to the player
	PromptScript Script    // script the prompt is rendered in
	AnswerScript Script    // script the options are rendered in
	CorrectKey   string    // key of the target entry
	Slots        []string  // expected option text per position, in order
	Options      []string  // option texts in display order
	Entry        *KanaEntry // target entry, surfaced as the reward word
}

// ExpectedAt returns the option text the given slot must be answered with.
func (r *Round) ExpectedAt(slot int) string {
	if slot < 0 || slot >= len(r.Slots) {
		return ""
	}
	return r.Slots[slot]
}

// PhraseLength returns the number of answer slots.
func (r *Round) PhraseLength() int { return len(r.Slots) }
