package services

import (
	"testing"

	"pilot-onboarding-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileEnv(t *testing.T) (*testEnv, *ProfileService) {
	t.Helper()
	env := newTestEnv(t)
	return env, NewProfileService(env.DB, env.Ranks)
}

func createModifierArtifact(t *testing.T, env *testEnv, name string) *models.Artifact {
	t.Helper()
	effect := "glow"
	artifact := &models.Artifact{
		Name: name, Description: "a", Rarity: models.RarityEpic,
		IsProfileModifier: true, ProfileEffect: &effect,
	}
	require.NoError(t, env.DB.Create(artifact).Error)
	return artifact
}

func TestApplyArtifactRequiresOwnership(t *testing.T) {
	env, profiles := newProfileEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	artifact := createModifierArtifact(t, env, "Аура")

	err := profiles.ApplyArtifact(pilot.ID, artifact.ID)
	assert.ErrorIs(t, err, ErrArtifactNotOwned)
}

func TestApplyArtifactRequiresModifier(t *testing.T) {
	env, profiles := newProfileEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	plain := &models.Artifact{Name: "Сувенир", Description: "a", Rarity: models.RarityCommon}
	require.NoError(t, env.DB.Create(plain).Error)
	require.NoError(t, env.DB.Create(&models.UserArtifact{
		UserID: pilot.ID, ArtifactID: plain.ID,
	}).Error)

	err := profiles.ApplyArtifact(pilot.ID, plain.ID)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrArtifactNotOwned)
}

func TestApplyAndRemoveArtifact(t *testing.T) {
	env, profiles := newProfileEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)
	artifact := createModifierArtifact(t, env, "Аура")
	require.NoError(t, env.DB.Create(&models.UserArtifact{
		UserID: pilot.ID, ArtifactID: artifact.ID,
	}).Error)

	require.NoError(t, profiles.ApplyArtifact(pilot.ID, artifact.ID))
	// Idempotent.
	require.NoError(t, profiles.ApplyArtifact(pilot.ID, artifact.ID))

	applied, err := profiles.ListAppliedArtifacts(pilot.ID)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	require.NotNil(t, applied[0].Artifact)
	assert.Equal(t, "Аура", applied[0].Artifact.Name)

	require.NoError(t, profiles.RemoveAppliedArtifact(pilot.ID, artifact.ID))
	applied, err = profiles.ListAppliedArtifacts(pilot.ID)
	require.NoError(t, err)
	assert.Empty(t, applied)

	err = profiles.RemoveAppliedArtifact(pilot.ID, artifact.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetProfile(t *testing.T) {
	env, profiles := newProfileEnv(t)
	rank := &models.Rank{Title: "Искатель", Description: "r", RequiredXP: 0}
	require.NoError(t, env.DB.Create(rank).Error)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 50, 10)
	require.NoError(t, env.DB.Model(pilot).Update("current_rank_id", rank.ID).Error)

	profile, err := profiles.GetProfile(pilot.ID)
	require.NoError(t, err)
	assert.Equal(t, pilot.ID, profile.User.ID)
	require.NotNil(t, profile.User.CurrentRank)
	assert.Equal(t, "Искатель", profile.User.CurrentRank.Title)
	require.NotNil(t, profile.Progress)
	assert.Equal(t, 50, profile.Progress.XP.Current)

	_, err = profiles.GetProfile(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	env, profiles := newProfileEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 0)

	name := "Новая Фамилия"
	branch := "Инженерия"
	updated, err := profiles.UpdateProfile(pilot.ID, ProfileInput{
		FullName:        &name,
		PreferredBranch: &branch,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FullName)
	require.NotNil(t, updated.PreferredBranch)
	assert.Equal(t, branch, *updated.PreferredBranch)
}
