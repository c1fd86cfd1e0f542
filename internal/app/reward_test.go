package app

import "testing"

func TestComputeReward(t *testing.T) {
	cases := []struct {
		name    string
		correct int
		speeds  []int
		total   int
		want    int64
	}{
		{name: "three of five correct", correct: 3, speeds: []int{100, 50, 80}, total: 5, want: 51},
		{name: "no correct answers", correct: 0, speeds: nil, total: 5, want: 5},
		{name: "no correct answers ignores stray speed data", correct: 0, speeds: []int{100, 100}, total: 2, want: 5},
		{name: "perfect and instant", correct: 4, speeds: []int{100, 100, 100, 100}, total: 4, want: 125},
		{name: "perfect and slow", correct: 2, speeds: []int{0, 0}, total: 2, want: 25},
		// (10 + 10*50*2/100) * 1/2 + 5 = 15
		{name: "half right half speed", correct: 1, speeds: []int{50}, total: 2, want: 15},
		// (10 + 10*25*2/100) * 1/4 + 5 = 8.75 -> 9
		{name: "rounds up above half", correct: 1, speeds: []int{25}, total: 4, want: 9},
		// (10 + 0) * 1/4 + 5 = 7.5 -> 8
		{name: "exact half rounds up", correct: 1, speeds: []int{0}, total: 4, want: 8},
		// (10 + 10*1*2/100) * 1/3 + 5 = 8.4 -> 8
		{name: "rounds down below half", correct: 1, speeds: []int{1}, total: 3, want: 8},
		{name: "missing speed history counts as zero", correct: 1, speeds: nil, total: 1, want: 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeReward(tc.correct, tc.speeds, tc.total)
			if got != tc.want {
				t.Fatalf("ComputeReward(%d, %v, %d) = %d, want %d", tc.correct, tc.speeds, tc.total, got, tc.want)
			}
		})
	}
}

func TestComputeRewardIsDeterministic(t *testing.T) {
	speeds := []int{33, 67, 12}
	first := ComputeReward(3, speeds, 7)
	for i := 0; i < 10; i++ {
		if got := ComputeReward(3, speeds, 7); got != first {
			t.Fatalf("reward changed between calls: %d vs %d", first, got)
		}
	}
}
