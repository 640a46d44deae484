package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreIncorrectIsAlwaysZero(t *testing.T) {
	assert.Equal(t, 0, Score(false, 0, 15, 0))
	assert.Equal(t, 0, Score(false, 5000, 15, 3))
	assert.Equal(t, 0, Score(false, 999999, 30, 100))
}

func TestScoreFullSpeed(t *testing.T) {
	// Instant correct answer with no streak scores the full base.
	assert.Equal(t, 1000, Score(true, 0, 15, 0))
}

func TestScoreMonotoneInElapsed(t *testing.T) {
	timer := 15
	prev := Score(true, 0, timer, 2)
	for elapsed := 0; elapsed <= timer*1000; elapsed += 500 {
		got := Score(true, elapsed, timer, 2)
		assert.LessOrEqual(t, got, prev, "score must not increase with elapsed time (elapsed=%d)", elapsed)
		prev = got
	}
}

func TestScoreLateAnswerNeverNegative(t *testing.T) {
	got := Score(true, 60_000, 15, 0)
	assert.GreaterOrEqual(t, got, 0)
	// Beyond the budget the speed component is floored at zero, so the
	// only points left come from the streak bonus.
	assert.Equal(t, Score(true, 15_000, 15, 0), got)
}

func TestScoreStreakBonusCapped(t *testing.T) {
	// streak 5 hits the cap; streak 100 must yield the same bonus.
	assert.Equal(t, Score(true, 0, 15, 5), Score(true, 0, 15, 100))
	assert.Equal(t, 1250, Score(true, 0, 15, 5))
	// Below the cap the bonus is 50 per consecutive correct answer.
	assert.Equal(t, 1100, Score(true, 0, 15, 2))
}

func TestScoreHalfTime(t *testing.T) {
	assert.Equal(t, 500, Score(true, 7500, 15, 0))
}

func TestScoreDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, Score(true, 3217, 20, 3), Score(true, 3217, 20, 3))
	}
}
