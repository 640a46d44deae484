package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencerWalksForwardOnly(t *testing.T) {
	s := NewSequencer(testQuestions)
	assert.Nil(t, s.Current(), "nothing active before Activate")

	s.Activate()
	assert.Equal(t, int64(101), s.Current().ID)
	assert.True(t, s.HasNext())

	assert.True(t, s.Advance())
	assert.Equal(t, int64(102), s.Current().ID)
	assert.False(t, s.HasNext())

	assert.False(t, s.Advance())
	assert.Nil(t, s.Current(), "exhausted sequencer has no active question")
	// No rewind: advancing past the end stays at the end.
	assert.False(t, s.Advance())
	assert.Nil(t, s.Current())
}

func TestLedgerRejectsDuplicates(t *testing.T) {
	l := NewLedger()
	ok := l.Append(&Submission{PlayerID: 1, QuestionID: 101, SelectedIndex: 0, Points: 800})
	assert.True(t, ok)
	ok = l.Append(&Submission{PlayerID: 1, QuestionID: 101, SelectedIndex: 2})
	assert.False(t, ok, "second entry for the same player must be rejected")

	assert.Equal(t, 1, l.Count())
	sub, ok := l.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 800, sub.Points, "original entry must survive the rejected overwrite")

	assert.True(t, l.Contains(1))
	assert.False(t, l.Contains(2))
	assert.False(t, l.AllAnswered(2))
	l.Append(&Submission{PlayerID: 2, QuestionID: 101, SelectedIndex: 1})
	assert.True(t, l.AllAnswered(2))
}
