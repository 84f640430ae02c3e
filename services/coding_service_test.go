package services

import (
	"testing"
	"time"

	"pilot-onboarding-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodingEnv(t *testing.T) (*testEnv, *CodingService) {
	t.Helper()
	env := newTestEnv(t)
	coding := NewCodingService(env.DB, echoRunner{}, env.Mission, time.Second)
	return env, coding
}

func seedCodingMission(t *testing.T, env *testEnv, outputs ...string) (*models.Mission, []models.CodingChallenge) {
	t.Helper()
	mission := createMission(t, env.DB, "Алгоритмы", 120, 15)
	challenges := make([]models.CodingChallenge, 0, len(outputs))
	for i, output := range outputs {
		challenge := models.CodingChallenge{
			MissionID:      mission.ID,
			Order:          i + 1,
			Title:          "Задание",
			Prompt:         "напишите программу",
			ExpectedOutput: output,
		}
		require.NoError(t, env.DB.Create(&challenge).Error)
		challenges = append(challenges, challenge)
	}
	return mission, challenges
}

func TestEvaluateOutOfSequence(t *testing.T) {
	env, coding := newCodingEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	_, challenges := seedCodingMission(t, env, "one", "two")

	_, err := coding.Evaluate(pilot, challenges[1].MissionID, challenges[1].ID, "two")
	assert.ErrorIs(t, err, ErrOutOfSequence)

	var attempts int64
	require.NoError(t, env.DB.Model(&models.CodingAttempt{}).Count(&attempts).Error)
	assert.Zero(t, attempts, "a blocked run leaves no trace")

	var progress models.CodingProgress
	require.NoError(t, env.DB.Where("user_id = ?", pilot.ID).First(&progress).Error)
	assert.Zero(t, progress.CurrentOrder)
}

func TestEvaluateFullPassCreditsMission(t *testing.T) {
	env, coding := newCodingEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission, challenges := seedCodingMission(t, env, "one", "two")

	first, err := coding.Evaluate(pilot, mission.ID, challenges[0].ID, "one")
	require.NoError(t, err)
	assert.True(t, first.Attempt.IsPassed)
	assert.False(t, first.MissionCompleted)

	second, err := coding.Evaluate(pilot, mission.ID, challenges[1].ID, "two")
	require.NoError(t, err)
	assert.True(t, second.Attempt.IsPassed)
	assert.True(t, second.MissionCompleted)

	var submission models.MissionSubmission
	require.NoError(t, env.DB.Where("user_id = ? AND mission_id = ?", pilot.ID, mission.ID).
		First(&submission).Error)
	assert.Equal(t, models.SubmissionApproved, submission.Status)
	assert.Equal(t, 120, submission.AwardedXP)
	require.NotNil(t, submission.Comment)
	assert.Equal(t, "Автоматическая проверка: все задания решены.", *submission.Comment)

	require.NoError(t, env.DB.First(pilot, pilot.ID).Error)
	assert.Equal(t, 120, pilot.XP)
	assert.Equal(t, 15, pilot.Mana)

	var progress models.CodingProgress
	require.NoError(t, env.DB.Where("user_id = ? AND mission_id = ?", pilot.ID, mission.ID).
		First(&progress).Error)
	assert.Equal(t, 2, progress.CurrentOrder)
	assert.NotNil(t, progress.CompletedAt)
}

func TestEvaluateRerunNoDoubleCredit(t *testing.T) {
	env, coding := newCodingEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission, challenges := seedCodingMission(t, env, "one", "two")

	_, err := coding.Evaluate(pilot, mission.ID, challenges[0].ID, "one")
	require.NoError(t, err)
	_, err = coding.Evaluate(pilot, mission.ID, challenges[1].ID, "two")
	require.NoError(t, err)

	rerun, err := coding.Evaluate(pilot, mission.ID, challenges[0].ID, "one")
	require.NoError(t, err)
	assert.True(t, rerun.Attempt.IsPassed, "solved challenges stay runnable")
	assert.False(t, rerun.MissionCompleted)

	require.NoError(t, env.DB.First(pilot, pilot.ID).Error)
	assert.Equal(t, 120, pilot.XP, "credit happens exactly once")

	var progress models.CodingProgress
	require.NoError(t, env.DB.Where("user_id = ?", pilot.ID).First(&progress).Error)
	assert.Equal(t, 2, progress.CurrentOrder)
}

func TestFinalizeAfterManualApproveNoDoubleCredit(t *testing.T) {
	env, coding := newCodingEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission, challenges := seedCodingMission(t, env, "one", "two")

	_, err := coding.Evaluate(pilot, mission.ID, challenges[0].ID, "one")
	require.NoError(t, err)

	// HR credits the pending submission before the last challenge lands.
	comment := "досрочно"
	submission, err := env.Mission.Submit(pilot, mission.ID, SubmissionInput{Comment: &comment})
	require.NoError(t, err)
	_, err = env.Mission.Approve(submission.ID)
	require.NoError(t, err)

	require.NoError(t, env.DB.First(pilot, pilot.ID).Error)
	final, err := coding.Evaluate(pilot, mission.ID, challenges[1].ID, "two")
	require.NoError(t, err)
	assert.True(t, final.MissionCompleted)

	require.NoError(t, env.DB.First(pilot, pilot.ID).Error)
	assert.Equal(t, 120, pilot.XP, "the manual approval is the only credit")
	assert.Equal(t, 15, pilot.Mana)

	var entries int64
	require.NoError(t, env.DB.Model(&models.JournalEntry{}).
		Where("user_id = ? AND event_type = ?", pilot.ID, models.EventMissionCompleted).
		Count(&entries).Error)
	assert.EqualValues(t, 1, entries)
}

func TestEvaluateFailedRun(t *testing.T) {
	env := newTestEnv(t)
	coding := NewCodingService(env.DB, failRunner{}, env.Mission, time.Second)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission, challenges := seedCodingMission(t, env, "one")

	evaluation, err := coding.Evaluate(pilot, mission.ID, challenges[0].ID, "broken")
	require.NoError(t, err)
	assert.False(t, evaluation.Attempt.IsPassed)
	assert.Equal(t, 1, evaluation.Attempt.ExitCode)
	assert.Equal(t, "Traceback", evaluation.Attempt.Stderr)

	var progress models.CodingProgress
	require.NoError(t, env.DB.Where("user_id = ?", pilot.ID).First(&progress).Error)
	assert.Zero(t, progress.CurrentOrder, "a failed run never advances progress")
}

func TestEvaluateWrongOutput(t *testing.T) {
	env, coding := newCodingEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission, challenges := seedCodingMission(t, env, "expected")

	evaluation, err := coding.Evaluate(pilot, mission.ID, challenges[0].ID, "something else")
	require.NoError(t, err)
	assert.False(t, evaluation.Attempt.IsPassed)
	assert.False(t, evaluation.MissionCompleted)
}

func TestEvaluateNormalizesLineEndings(t *testing.T) {
	env, coding := newCodingEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission, challenges := seedCodingMission(t, env, "a\nb\n")

	evaluation, err := coding.Evaluate(pilot, mission.ID, challenges[0].ID, "a\r\nb")
	require.NoError(t, err)
	assert.True(t, evaluation.Attempt.IsPassed,
		"CRLF and trailing newlines do not fail a correct answer")
}

func TestBuildState(t *testing.T) {
	env, coding := newCodingEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission, challenges := seedCodingMission(t, env, "one", "two")

	state, err := coding.BuildState(pilot, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, state.TotalChallenges)
	assert.Zero(t, state.CompletedChallenges)
	assert.False(t, state.IsCompleted)
	require.NotNil(t, state.NextChallenge)
	assert.Equal(t, challenges[0].ID, state.NextChallenge.ID)
	assert.Empty(t, state.LastAttempts)

	_, err = coding.Evaluate(pilot, mission.ID, challenges[0].ID, "one")
	require.NoError(t, err)

	state, err = coding.BuildState(pilot, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CompletedChallenges)
	require.NotNil(t, state.NextChallenge)
	assert.Equal(t, challenges[1].ID, state.NextChallenge.ID)
	require.Len(t, state.LastAttempts, 1)
	require.NotNil(t, state.LastCode)
	assert.Equal(t, "one", *state.LastCode)
}

func TestBuildStateZeroChallenges(t *testing.T) {
	env, coding := newCodingEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission := createMission(t, env.DB, "Пустая", 10, 0)

	state, err := coding.BuildState(pilot, mission.ID)
	require.NoError(t, err)
	assert.Zero(t, state.TotalChallenges)
	assert.False(t, state.IsCompleted, "a mission with no challenges never completes")
	assert.Nil(t, state.NextChallenge)
}
