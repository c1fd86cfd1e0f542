package app

import "github.com/shopspring/decimal"

// Reward formula constants, in QTKN.
const (
	BasePerQuestion    = 10
	SpeedMultiplier    = 2
	ParticipationBonus = 5
)

// ComputeReward returns the QTKN reward for a participant:
//
//	avgSpeed   = mean(speedScores), 0 when empty
//	base       = correct * BasePerQuestion
//	speedBonus = base * avgSpeed * SpeedMultiplier / 100
//	reward     = round((base + speedBonus) * correct/totalQuestions + ParticipationBonus)
//
// The whole expression is evaluated as a single fraction so the only rounding is the final half-up step.
func ComputeReward(correct int, speedScores []int, totalQuestions int) int64 {
	if correct <= 0 || totalQuestions <= 0 {
		return ParticipationBonus
	}

	samples := int64(len(speedScores))
	var sum int64
	for _, s := range speedScores {
		sum += int64(s)
	}
	if samples == 0 {
		samples = 1 // avgSpeed = 0
	}

	base := decimal.NewFromInt(int64(correct) * BasePerQuestion)
	// (base + base*sum*mult/(100*samples)) * correct/total
	//   = base * (100*samples + mult*sum) * correct / (100*samples*total)
	num := base.
		Mul(decimal.NewFromInt(100*samples + SpeedMultiplier*sum)).
		Mul(decimal.NewFromInt(int64(correct)))
	den := decimal.NewFromInt(100 * samples * int64(totalQuestions))

	return num.DivRound(den, 0).IntPart() + ParticipationBonus
}
