package app_test

import (
	"context"
	"testing"

	"github.com/XianPaz/quizchain/internal/app"
	"github.com/XianPaz/quizchain/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionInitialState(t *testing.T) {
	store := newTestStore()

	session, err := store.CreateSession("ROOM1", "Quiz night", sampleQuestions(3))
	require.NoError(t, err)
	require.Equal(t, domain.StatusWaiting, session.Status)
	require.Equal(t, -1, session.CurrentQuestion)
	require.Empty(t, session.Participants)
	require.Empty(t, session.Scores)
	require.Equal(t, fixedNow, session.CreatedAt)
}

func TestCreateSessionRoomCodeTaken(t *testing.T) {
	store := newTestStore()

	_, err := store.CreateSession("ROOM1", "first", sampleQuestions(1))
	require.NoError(t, err)
	_, _, err = store.AddParticipant("ROOM1", player("a"))
	require.NoError(t, err)

	_, err = store.CreateSession("ROOM1", "second", sampleQuestions(4))
	require.ErrorIs(t, err, domain.ErrRoomCodeTaken)

	original, err := store.GetSession("ROOM1")
	require.NoError(t, err)
	require.Equal(t, "first", original.Name)
	require.Len(t, original.Questions, 1)
	require.Len(t, original.Participants, 1)
}

func TestCreateSessionValidation(t *testing.T) {
	store := newTestStore()

	_, err := store.CreateSession("ROOM1", "empty", nil)
	require.ErrorIs(t, err, domain.ErrInvalidQuestionSet)

	_, err = store.CreateSession("", "no code", sampleQuestions(1))
	require.ErrorIs(t, err, domain.ErrInvalidRoomCode)

	bad := sampleQuestions(1)
	bad[0].Correct = 7
	_, err = store.CreateSession("ROOM1", "bad", bad)
	require.ErrorIs(t, err, domain.ErrInvalidQuestionSet)

	_, err = store.GetSession("ROOM1")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestCreateSessionFromQuiz(t *testing.T) {
	store := newTestStore()

	session, err := store.CreateSessionFromQuiz(context.Background(), "SAVED1", "", "quiz-1")
	require.NoError(t, err)
	require.Equal(t, "Saved", session.Name)
	require.Len(t, session.Questions, 2)

	_, err = store.CreateSessionFromQuiz(context.Background(), "SAVED2", "", "missing")
	require.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestAddParticipantIsIdempotent(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(1))
	require.NoError(t, err)

	_, joined, err := store.AddParticipant("ROOM1", player("a"))
	require.NoError(t, err)
	require.True(t, joined)

	_, err = store.SetCurrentQuestion("ROOM1", 0)
	require.NoError(t, err)
	_, _, err = store.RecordAnswer("ROOM1", 0, "a", 1, 90)
	require.NoError(t, err)
	_, err = store.ComputeQuestionScores("ROOM1", 0)
	require.NoError(t, err)

	session, joined, err := store.AddParticipant("ROOM1", domain.Participant{Identity: "a", DisplayName: "renamed"})
	require.NoError(t, err)
	require.False(t, joined)
	require.Len(t, session.Participants, 1)
	require.Equal(t, "player a", session.Participants[0].DisplayName)
	require.Equal(t, 1, session.Scores["a"].Correct)
	require.Equal(t, []int{90}, session.Scores["a"].SpeedScores)
}

func TestScoreRecordExistsForEveryParticipant(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(1))
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		_, _, err := store.AddParticipant("ROOM1", player(id))
		require.NoError(t, err)
	}
	session, err := store.GetSession("ROOM1")
	require.NoError(t, err)
	require.Len(t, session.Scores, len(session.Participants))
	for _, p := range session.Participants {
		require.Contains(t, session.Scores, p.Identity)
	}
}

func TestRecordAnswerFirstWriteWins(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(1))
	require.NoError(t, err)
	_, _, err = store.AddParticipant("ROOM1", player("a"))
	require.NoError(t, err)

	_, recorded, err := store.RecordAnswer("ROOM1", 0, "a", 2, 40)
	require.NoError(t, err)
	require.True(t, recorded)

	session, recorded, err := store.RecordAnswer("ROOM1", 0, "a", 1, 99)
	require.NoError(t, err)
	require.False(t, recorded)
	require.Equal(t, 2, session.Answers[0]["a"].OptionIndex)
	require.Equal(t, 40, session.Answers[0]["a"].SpeedScore)

	// A timeout after an answer is also ignored.
	session, recorded, err = store.RecordAnswer("ROOM1", 0, "a", domain.NoAnswer, 0)
	require.NoError(t, err)
	require.False(t, recorded)
	require.Equal(t, 2, session.Answers[0]["a"].OptionIndex)
}

func TestRecordAnswerRejectsUnknownParticipantAndRoom(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(1))
	require.NoError(t, err)

	_, _, err = store.RecordAnswer("ROOM1", 0, "ghost", 1, 50)
	require.ErrorIs(t, err, domain.ErrParticipantNotFound)

	_, _, err = store.RecordAnswer("NOPE", 0, "a", 1, 50)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRecordAnswerClampsSpeedScore(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(1))
	require.NoError(t, err)
	_, _, err = store.AddParticipant("ROOM1", player("a"))
	require.NoError(t, err)

	session, _, err := store.RecordAnswer("ROOM1", 0, "a", 1, 250)
	require.NoError(t, err)
	require.Equal(t, 100, session.Answers[0]["a"].SpeedScore)
}

func TestAllAnswered(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(1))
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		_, _, err := store.AddParticipant("ROOM1", player(id))
		require.NoError(t, err)
	}

	_, _, err = store.RecordAnswer("ROOM1", 0, "a", 1, 50)
	require.NoError(t, err)
	_, _, err = store.RecordAnswer("ROOM1", 0, "b", domain.NoAnswer, 0)
	require.NoError(t, err)

	done, err := store.AllAnswered("ROOM1", 0)
	require.NoError(t, err)
	require.False(t, done, "N-1 answers")

	_, _, err = store.RecordAnswer("ROOM1", 0, "c", 0, 10)
	require.NoError(t, err)
	done, err = store.AllAnswered("ROOM1", 0)
	require.NoError(t, err)
	require.True(t, done, "N answers")
}

func TestAllAnsweredUsesParticipantCountAtCallTime(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(1))
	require.NoError(t, err)
	_, _, err = store.AddParticipant("ROOM1", player("a"))
	require.NoError(t, err)
	_, _, err = store.RecordAnswer("ROOM1", 0, "a", 1, 50)
	require.NoError(t, err)

	done, err := store.AllAnswered("ROOM1", 0)
	require.NoError(t, err)
	require.True(t, done)

	_, _, err = store.AddParticipant("ROOM1", player("late"))
	require.NoError(t, err)
	done, err = store.AllAnswered("ROOM1", 0)
	require.NoError(t, err)
	require.False(t, done, "late joiner reopens the question")
}

func TestComputeQuestionScoresIsIdempotent(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(2))
	require.NoError(t, err)
	for _, id := range []string{"a", "b"} {
		_, _, err := store.AddParticipant("ROOM1", player(id))
		require.NoError(t, err)
	}
	_, _, err = store.RecordAnswer("ROOM1", 0, "a", 1, 80)
	require.NoError(t, err)
	_, _, err = store.RecordAnswer("ROOM1", 0, "b", 0, 95)
	require.NoError(t, err)

	scored, err := store.ComputeQuestionScores("ROOM1", 0)
	require.NoError(t, err)
	require.True(t, scored)
	once, err := store.GetSession("ROOM1")
	require.NoError(t, err)

	scored, err = store.ComputeQuestionScores("ROOM1", 0)
	require.NoError(t, err)
	require.False(t, scored)
	twice, err := store.GetSession("ROOM1")
	require.NoError(t, err)

	require.Equal(t, once.Scores, twice.Scores)
	require.Equal(t, 1, twice.Scores["a"].Correct)
	require.Equal(t, []int{80}, twice.Scores["a"].SpeedScores)
	require.Equal(t, 0, twice.Scores["b"].Correct)
	require.Empty(t, twice.Scores["b"].SpeedScores)

	_, err = store.ComputeQuestionScores("ROOM1", 5)
	require.ErrorIs(t, err, domain.ErrQuestionOutOfRange)
}

func TestComputeQuestionStats(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(1))
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c", "d"} {
		_, _, err := store.AddParticipant("ROOM1", player(id))
		require.NoError(t, err)
	}
	answers := map[string]int{"a": 1, "b": 1, "c": 2, "d": domain.NoAnswer}
	for id, opt := range answers {
		_, _, err := store.RecordAnswer("ROOM1", 0, id, opt, 50)
		require.NoError(t, err)
	}

	stats, err := store.ComputeQuestionStats("ROOM1", 0)
	require.NoError(t, err)
	require.Equal(t, 1, stats.CorrectIndex)
	require.Equal(t, 2, stats.CorrectCount)
	require.Equal(t, 3, stats.TotalAnswered)
	require.Equal(t, 1, stats.TimedOut)
	require.Equal(t, 4, stats.TotalPlayers)
	require.Len(t, stats.Distribution, 3)

	sum := 0
	for _, d := range stats.Distribution {
		sum += d.Count
	}
	require.Equal(t, stats.TotalAnswered, sum)
	require.Equal(t, []domain.OptionCount{{Option: 0, Count: 0}, {Option: 1, Count: 2}, {Option: 2, Count: 1}}, stats.Distribution)
}

func TestStatusIsMonotonic(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(2))
	require.NoError(t, err)

	_, err = store.SetStatus("ROOM1", domain.StatusActive)
	require.NoError(t, err)
	session, err := store.SetCurrentQuestion("ROOM1", 0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusQuestionOpen, session.Status)
	require.Equal(t, 0, session.CurrentQuestion)

	_, err = store.SetStatus("ROOM1", domain.StatusShowingStats)
	require.NoError(t, err)
	_, err = store.SetCurrentQuestion("ROOM1", 1)
	require.NoError(t, err)

	_, err = store.SetStatus("ROOM1", domain.StatusWaiting)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = store.SetStatus("ROOM1", domain.StatusFinished)
	require.NoError(t, err)

	for _, next := range []domain.Status{domain.StatusWaiting, domain.StatusActive, domain.StatusQuestionOpen, domain.StatusShowingStats} {
		_, err = store.SetStatus("ROOM1", next)
		require.ErrorIs(t, err, domain.ErrInvalidTransition, "finished -> %s", next)
	}
	_, err = store.SetCurrentQuestion("ROOM1", 0)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	session, err = store.GetSession("ROOM1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusFinished, session.Status)
}

func TestComputeFinalRewards(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(5))
	require.NoError(t, err)
	_, _, err = store.AddParticipant("ROOM1", player("fast"))
	require.NoError(t, err)
	_, _, err = store.AddParticipant("ROOM1", player("idle"))
	require.NoError(t, err)

	speeds := []int{100, 50, 80, 0, 0}
	options := []int{1, 1, 1, 0, 2}
	for q := range speeds {
		_, _, err := store.RecordAnswer("ROOM1", q, "fast", options[q], speeds[q])
		require.NoError(t, err)
		_, _, err = store.RecordAnswer("ROOM1", q, "idle", domain.NoAnswer, 0)
		require.NoError(t, err)
		_, err = store.ComputeQuestionScores("ROOM1", q)
		require.NoError(t, err)
	}

	session, err := store.ComputeFinalRewards("ROOM1")
	require.NoError(t, err)
	require.Equal(t, int64(51), session.Scores["fast"].TotalReward)
	require.Equal(t, int64(app.ParticipationBonus), session.Scores["idle"].TotalReward)

	again, err := store.ComputeFinalRewards("ROOM1")
	require.NoError(t, err)
	require.Equal(t, session.Scores, again.Scores)
}

func TestSnapshotsAreIsolated(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(1))
	require.NoError(t, err)
	session, _, err := store.AddParticipant("ROOM1", player("a"))
	require.NoError(t, err)

	session.Participants[0].DisplayName = "mutated"
	session.Questions[0].Options[0] = "mutated"

	fresh, err := store.GetSession("ROOM1")
	require.NoError(t, err)
	require.Equal(t, "player a", fresh.Participants[0].DisplayName)
	require.Equal(t, "A", fresh.Questions[0].Options[0])
}

func TestLookupAndDelete(t *testing.T) {
	store := newTestStore()
	_, err := store.CreateSession("ROOM1", "quiz", sampleQuestions(1))
	require.NoError(t, err)

	_, err = store.LookupSession("ROOM1")
	require.NoError(t, err)

	_, err = store.SetStatus("ROOM1", domain.StatusFinished)
	require.NoError(t, err)
	_, err = store.LookupSession("ROOM1")
	require.ErrorIs(t, err, domain.ErrRoomExpired)

	store.DeleteSession("ROOM1")
	_, err = store.LookupSession("ROOM1")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)

	// Deleting again is harmless.
	store.DeleteSession("ROOM1")
}
