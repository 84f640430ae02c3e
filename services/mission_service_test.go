package services

import (
	"testing"
	"time"

	"pilot-onboarding-system/models"
	"pilot-onboarding-system/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAndApprove(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission := createMission(t, env.DB, "Первый полёт", 100, 10)

	comment := "готово"
	submission, err := env.Mission.Submit(pilot, mission.ID, SubmissionInput{Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, submission.Status)

	approved, err := env.Mission.Approve(submission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionApproved, approved.Status)
	assert.Equal(t, 100, approved.AwardedXP)
	assert.Equal(t, 10, approved.AwardedMana)

	require.NoError(t, env.DB.First(pilot, pilot.ID).Error)
	assert.Equal(t, 100, pilot.XP)
	assert.Equal(t, 10, pilot.Mana)

	var entry models.JournalEntry
	require.NoError(t, env.DB.Where("user_id = ? AND xp_delta = ?", pilot.ID, 100).
		First(&entry).Error)
	assert.Equal(t, models.EventMissionCompleted, entry.EventType)
	assert.Equal(t, 10, entry.ManaDelta)
}

func TestApproveIdempotent(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission := createMission(t, env.DB, "Миссия", 100, 0)
	approveMissionFor(t, env, pilot, mission)

	var submission models.MissionSubmission
	require.NoError(t, env.DB.Where("user_id = ? AND mission_id = ?", pilot.ID, mission.ID).
		First(&submission).Error)

	_, err := env.Mission.Approve(submission.ID)
	require.NoError(t, err)

	require.NoError(t, env.DB.First(pilot, pilot.ID).Error)
	assert.Equal(t, 100, pilot.XP, "second approve must not credit twice")
}

func TestResubmitApprovedFails(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission := createMission(t, env.DB, "Миссия", 100, 0)
	approveMissionFor(t, env, pilot, mission)

	_, err := env.Mission.Submit(pilot, mission.ID, SubmissionInput{})
	assert.ErrorIs(t, err, ErrAlreadyCredited)
}

func TestSubmitUnavailableMission(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	m1 := createMission(t, env.DB, "M1", 50, 0)
	m2 := createMission(t, env.DB, "M2", 50, 0)
	require.NoError(t, env.DB.Create(&models.MissionPrerequisite{
		MissionID: m2.ID, RequiredMissionID: m1.ID,
	}).Error)

	_, err := env.Mission.Submit(pilot, m2.ID, SubmissionInput{})
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Reasons, "Завершите миссию «M1»")
}

func TestRejectAndResubmit(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission := createMission(t, env.DB, "Миссия", 100, 0)

	first, err := env.Mission.Submit(pilot, mission.ID, SubmissionInput{})
	require.NoError(t, err)

	rejected, err := env.Mission.Reject(first.ID, "Не хватает документов")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, rejected.Status)
	require.NotNil(t, rejected.Comment)
	assert.Equal(t, "Не хватает документов", *rejected.Comment)

	require.NoError(t, env.DB.First(pilot, pilot.ID).Error)
	assert.Zero(t, pilot.XP, "reject must not touch rewards")

	second, err := env.Mission.Submit(pilot, mission.ID, SubmissionInput{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "resubmit reuses the row")
	assert.Equal(t, models.SubmissionPending, second.Status)
}

func TestRejectApprovedFails(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission := createMission(t, env.DB, "Миссия", 100, 0)
	approveMissionFor(t, env, pilot, mission)

	var submission models.MissionSubmission
	require.NoError(t, env.DB.Where("user_id = ? AND mission_id = ?", pilot.ID, mission.ID).
		First(&submission).Error)

	_, err := env.Mission.Reject(submission.ID, "nope")
	assert.ErrorIs(t, err, ErrAlreadyCredited)
}

func TestDocumentReplacement(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	mission := createMission(t, env.DB, "Документы", 50, 0)

	firstPath, err := env.Docs.Save([]byte("v1"), "passport", pilot.ID, "scan.pdf")
	require.NoError(t, err)
	submission, err := env.Mission.Submit(pilot, mission.ID, SubmissionInput{
		PassportPath: utils.SetTo(firstPath),
	})
	require.NoError(t, err)
	require.NotNil(t, submission.PassportPath)

	_, err = env.Mission.Reject(submission.ID, "перезалейте скан")
	require.NoError(t, err)

	secondPath, err := env.Docs.Save([]byte("v2"), "passport", pilot.ID, "scan.pdf")
	require.NoError(t, err)
	updated, err := env.Mission.Submit(pilot, mission.ID, SubmissionInput{
		PassportPath: utils.SetTo(secondPath),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.PassportPath)
	assert.Equal(t, secondPath, *updated.PassportPath)
	assert.Contains(t, env.Docs.deleted, firstPath, "replaced file is removed from storage")

	// Absent field keeps the stored document.
	kept, err := env.Mission.Submit(pilot, mission.ID, SubmissionInput{})
	require.NoError(t, err)
	require.NotNil(t, kept.PassportPath)
	assert.Equal(t, secondPath, *kept.PassportPath)

	// Explicit clear removes it.
	cleared, err := env.Mission.Submit(pilot, mission.ID, SubmissionInput{
		PassportPath: utils.Field[string]{Set: true},
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.PassportPath)
	assert.Contains(t, env.Docs.deleted, secondPath)
}

func TestCompetencyRewards(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	competency := &models.Competency{
		Name: "Коммуникация", Description: "c", Category: models.CategoryCommunication,
	}
	require.NoError(t, env.DB.Create(competency).Error)
	mission := createMission(t, env.DB, "Знакомство", 50, 0)
	require.NoError(t, env.DB.Create(&models.MissionCompetencyReward{
		MissionID: mission.ID, CompetencyID: competency.ID, LevelDelta: 2,
	}).Error)

	approveMissionFor(t, env, pilot, mission)

	var uc models.UserCompetency
	require.NoError(t, env.DB.Where("user_id = ? AND competency_id = ?", pilot.ID, competency.ID).
		First(&uc).Error)
	assert.Equal(t, 2, uc.Level)
}

func TestArtifactGrantedOnce(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	artifact := &models.Artifact{Name: "Значок", Description: "a", Rarity: models.RarityRare}
	require.NoError(t, env.DB.Create(artifact).Error)

	m1 := createMission(t, env.DB, "M1", 10, 0)
	m2 := createMission(t, env.DB, "M2", 10, 0)
	require.NoError(t, env.DB.Model(m1).Update("artifact_id", artifact.ID).Error)
	require.NoError(t, env.DB.Model(m2).Update("artifact_id", artifact.ID).Error)

	approveMissionFor(t, env, pilot, m1)
	approveMissionFor(t, env, pilot, m2)

	var owned int64
	require.NoError(t, env.DB.Model(&models.UserArtifact{}).
		Where("user_id = ? AND artifact_id = ?", pilot.ID, artifact.ID).
		Count(&owned).Error)
	assert.EqualValues(t, 1, owned)
}

func TestRegisterOfflineEvent(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	other := createPilot(t, env.DB, "other@corp.test", 0, 0)

	online := createMission(t, env.DB, "Онлайн", 10, 0)
	_, err := env.Mission.Register(pilot, online.ID)
	assert.ErrorIs(t, err, ErrOnlineMission)

	future := time.Now().Add(48 * time.Hour)
	event := createMission(t, env.DB, "Экскурсия", 30, 0)
	require.NoError(t, env.DB.Model(event).Updates(map[string]any{
		"format":          models.FormatOffline,
		"event_starts_at": future,
		"capacity":        1,
	}).Error)

	first, err := env.Mission.Register(pilot, event.ID)
	require.NoError(t, err)

	again, err := env.Mission.Register(pilot, event.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "re-registration is idempotent")

	_, err = env.Mission.Register(other, event.ID)
	assert.ErrorIs(t, err, ErrNoSeatsLeft)
}

func TestRegisterAfterEventStart(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)

	past := time.Now().Add(-time.Hour)
	event := createMission(t, env.DB, "Прошедшее", 30, 0)
	require.NoError(t, env.DB.Model(event).Updates(map[string]any{
		"format":          models.FormatOffline,
		"event_starts_at": past,
	}).Error)

	_, err := env.Mission.Register(pilot, event.ID)
	assert.ErrorIs(t, err, ErrEventStarted)
}

func TestModerationQueueOrder(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	m1 := createMission(t, env.DB, "M1", 10, 0)
	m2 := createMission(t, env.DB, "M2", 10, 0)

	_, err := env.Mission.Submit(pilot, m1.ID, SubmissionInput{})
	require.NoError(t, err)
	_, err = env.Mission.Submit(pilot, m2.ID, SubmissionInput{})
	require.NoError(t, err)

	queue, err := env.Mission.ModerationQueue()
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, m1.ID, queue[0].MissionID, "oldest submission first")
}

func TestListMissionsStatuses(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	done := createMission(t, env.DB, "Done", 10, 0)
	open := createMission(t, env.DB, "Open", 10, 0)
	locked := createMission(t, env.DB, "Locked", 10, 0)
	require.NoError(t, env.DB.Create(&models.MissionPrerequisite{
		MissionID: locked.ID, RequiredMissionID: open.ID,
	}).Error)
	hidden := createMission(t, env.DB, "Hidden", 10, 0)
	require.NoError(t, env.DB.Model(hidden).Update("is_active", false).Error)

	approveMissionFor(t, env, pilot, done)

	summaries, err := env.Mission.ListMissions(pilot)
	require.NoError(t, err)
	require.Len(t, summaries, 3, "inactive missions stay out of the list")

	byID := map[uint]MissionSummary{}
	for _, summary := range summaries {
		byID[summary.Mission.ID] = summary
	}

	assert.True(t, byID[done.ID].IsCompleted)
	assert.False(t, byID[done.ID].IsAvailable)
	require.NotNil(t, byID[done.ID].SubmissionStatus)
	assert.Equal(t, models.SubmissionApproved, *byID[done.ID].SubmissionStatus)

	assert.True(t, byID[open.ID].IsAvailable)
	assert.False(t, byID[locked.ID].IsAvailable)
	assert.NotEmpty(t, byID[locked.ID].LockedReasons)
}

func TestListBranchesProgress(t *testing.T) {
	env := newTestEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	m1 := createMission(t, env.DB, "Intro", 10, 0)
	m2 := createMission(t, env.DB, "Final", 10, 0)
	branch := &models.Branch{Title: "Старт", Description: "b", Category: "quest"}
	require.NoError(t, env.DB.Create(branch).Error)
	require.NoError(t, env.DB.Create(&models.BranchMission{
		BranchID: branch.ID, MissionID: m1.ID, Order: 1,
	}).Error)
	require.NoError(t, env.DB.Create(&models.BranchMission{
		BranchID: branch.ID, MissionID: m2.ID, Order: 2,
	}).Error)

	approveMissionFor(t, env, pilot, m1)

	views, err := env.Mission.ListBranches(pilot)
	require.NoError(t, err)
	require.Len(t, views, 1)
	view := views[0]
	assert.Equal(t, 2, view.TotalMissions)
	assert.Equal(t, 1, view.CompletedMissions)
	require.Len(t, view.Missions, 2)
	assert.Equal(t, "Intro", view.Missions[0].MissionTitle)
	assert.True(t, view.Missions[0].IsCompleted)
	assert.True(t, view.Missions[1].IsAvailable)
}
