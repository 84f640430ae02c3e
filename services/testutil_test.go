package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"pilot-onboarding-system/models"
	"pilot-onboarding-system/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Competency{},
		&models.UserCompetency{},
		&models.Artifact{},
		&models.UserArtifact{},
		&models.UserAppliedArtifact{},
		&models.Rank{},
		&models.RankMissionRequirement{},
		&models.RankCompetencyRequirement{},
		&models.Mission{},
		&models.MissionCompetencyReward{},
		&models.MissionPrerequisite{},
		&models.MissionSubmission{},
		&models.MissionRegistration{},
		&models.Branch{},
		&models.BranchMission{},
		&models.CodingChallenge{},
		&models.CodingProgress{},
		&models.CodingAttempt{},
		&models.JournalEntry{},
		&models.StoreItem{},
		&models.Order{},
		&models.OnboardingSlide{},
		&models.OnboardingState{},
	))
	return db
}

// memDocStore is an in-memory DocumentStore for tests.
type memDocStore struct {
	files   map[string][]byte
	deleted []string
	counter int
}

func newMemDocStore() *memDocStore {
	return &memDocStore{files: map[string][]byte{}}
}

func (m *memDocStore) Save(data []byte, category string, ownerID uint, filename string) (string, error) {
	m.counter++
	path := fmt.Sprintf("%s/user_%d/%d_%s", category, ownerID, m.counter, filename)
	m.files[path] = data
	return path, nil
}

func (m *memDocStore) Delete(relativePath string) error {
	delete(m.files, relativePath)
	m.deleted = append(m.deleted, relativePath)
	return nil
}

func (m *memDocStore) Read(relativePath string) ([]byte, error) {
	data, ok := m.files[relativePath]
	if !ok {
		return nil, fmt.Errorf("no such document %q", relativePath)
	}
	return data, nil
}

// echoRunner passes a run iff the submitted code equals the challenge's
// expected output, which keeps grading tests declarative.
type echoRunner struct{}

func (echoRunner) Run(source, stdin string, timeout time.Duration) (utils.RunResult, error) {
	return utils.RunResult{Stdout: source}, nil
}

// failRunner always exits non-zero.
type failRunner struct{}

func (failRunner) Run(source, stdin string, timeout time.Duration) (utils.RunResult, error) {
	return utils.RunResult{Stderr: "Traceback", ExitCode: 1}, nil
}

type testEnv struct {
	DB      *gorm.DB
	Docs    *memDocStore
	Journal *JournalService
	Ranks   *RankService
	Mission *MissionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := openTestDB(t)
	docs := newMemDocStore()
	journal := NewJournalService(db)
	ranks := NewRankService(db, journal)
	return &testEnv{
		DB:      db,
		Docs:    docs,
		Journal: journal,
		Ranks:   ranks,
		Mission: NewMissionService(db, journal, ranks, docs),
	}
}

func createPilot(t *testing.T, db *gorm.DB, email string, xp, mana int) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		FullName: "Test Pilot",
		Role:     models.RolePilot,
		XP:       xp,
		Mana:     mana,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createMission(t *testing.T, db *gorm.DB, title string, xp, mana int) *models.Mission {
	t.Helper()
	mission := &models.Mission{
		Title:       title,
		Description: "test mission",
		XPReward:    xp,
		ManaReward:  mana,
		Difficulty:  models.DifficultyMedium,
		Format:      models.FormatOnline,
		IsActive:    true,
	}
	require.NoError(t, db.Create(mission).Error)
	return mission
}

func approveMissionFor(t *testing.T, env *testEnv, user *models.User, mission *models.Mission) {
	t.Helper()
	comment := "done"
	submission, err := env.Mission.Submit(user, mission.ID, SubmissionInput{Comment: &comment})
	require.NoError(t, err)
	_, err = env.Mission.Approve(submission.ID)
	require.NoError(t, err)
	require.NoError(t, env.DB.First(user, user.ID).Error)
}
