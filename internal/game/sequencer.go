package game

// Sequencer walks the room's question list in order. The list is fixed
// for the lifetime of the room and the position only ever moves forward.
type Sequencer struct {
	questions []Question
	pos       int
	started   bool
}

func NewSequencer(questions []Question) *Sequencer {
	return &Sequencer{questions: questions}
}

// Current returns the active question, or nil before the first Activate
// or after the list is exhausted.
func (s *Sequencer) Current() *Question {
	if !s.started || s.pos >= len(s.questions) {
		return nil
	}
	return &s.questions[s.pos]
}

func (s *Sequencer) Index() int {
	return s.pos
}

func (s *Sequencer) Len() int {
	return len(s.questions)
}

// Activate marks position 0 as active. No-op if already started.
func (s *Sequencer) Activate() {
	s.started = true
}

func (s *Sequencer) HasNext() bool {
	return s.pos+1 < len(s.questions)
}

// Advance moves to the next question and reports whether one exists.
// It never wraps or rewinds.
func (s *Sequencer) Advance() bool {
	if !s.HasNext() {
		s.pos = len(s.questions)
		return false
	}
	s.pos++
	return true
}
