package game

import "math"

const (
	basePoints      = 1000
	streakBonusStep = 50
	maxStreakBonus  = 250
)

// Score computes the points for a single answer. It is a pure function:
// the caller supplies the elapsed time instead of the engine reading a
// clock, so identical inputs always give identical points.
//
// Incorrect answers score 0; the caller resets the streak.
// Correct answers score the base scaled linearly by remaining time
// (100% at 0ms down to 0% at the full timer, floored at 0 for late or
// clock-skewed submissions) plus a streak bonus of 50 per consecutive
// correct answer, capped at 250. The caller increments the streak.
func Score(isCorrect bool, elapsedMs int, timerSeconds int, currentStreak int) int {
	if !isCorrect {
		return 0
	}

	budgetMs := float64(timerSeconds) * 1000
	speed := 0.0
	if budgetMs > 0 {
		speed = 1 - float64(elapsedMs)/budgetMs
	}
	if speed < 0 {
		speed = 0
	}
	if speed > 1 {
		speed = 1
	}

	bonus := currentStreak * streakBonusStep
	if bonus > maxStreakBonus {
		bonus = maxStreakBonus
	}

	return int(math.Round(basePoints*speed)) + bonus
}
