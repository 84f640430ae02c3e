package services

import (
	"fmt"
	"time"

	"pilot-onboarding-system/models"

	"gorm.io/gorm"
)

// AvailabilityContext is everything MissionAvailability needs, loaded up
// front with explicit queries so the rule evaluation itself does no I/O.
type AvailabilityContext struct {
	Now                time.Time
	CompletedMissions  map[uint]bool
	BranchDependencies map[uint][]uint
	MissionTitles      map[uint]string
	// Per offline mission: distinct pilots holding a registration or a
	// non-rejected submission. Compared against capacity.
	RegistrationCounts map[uint]int
}

// BuildAvailabilityContext loads the pilot's approved set, the branch
// dependency map and offline registration counts in a handful of queries.
func BuildAvailabilityContext(db *gorm.DB, userID uint) (*AvailabilityContext, error) {
	ctx := &AvailabilityContext{
		Now:                time.Now().UTC(),
		CompletedMissions:  map[uint]bool{},
		BranchDependencies: map[uint][]uint{},
		MissionTitles:      map[uint]string{},
		RegistrationCounts: map[uint]int{},
	}

	var approved []uint
	if err := db.Model(&models.MissionSubmission{}).
		Where("user_id = ? AND status = ?", userID, models.SubmissionApproved).
		Pluck("mission_id", &approved).Error; err != nil {
		return nil, err
	}
	for _, id := range approved {
		ctx.CompletedMissions[id] = true
	}

	var links []models.BranchMission
	if err := db.Order("branch_id, \"order\"").Find(&links).Error; err != nil {
		return nil, err
	}
	var previous []uint
	var currentBranch uint
	for _, link := range links {
		if link.BranchID != currentBranch {
			currentBranch = link.BranchID
			previous = nil
		}
		if len(previous) > 0 {
			ctx.BranchDependencies[link.MissionID] = append(
				ctx.BranchDependencies[link.MissionID], previous...)
		}
		previous = append(previous, link.MissionID)
	}

	type titleRow struct {
		ID    uint
		Title string
	}
	var titles []titleRow
	if err := db.Model(&models.Mission{}).Select("id", "title").Scan(&titles).Error; err != nil {
		return nil, err
	}
	for _, row := range titles {
		ctx.MissionTitles[row.ID] = row.Title
	}

	counts, err := loadRegistrationCounts(db)
	if err != nil {
		return nil, err
	}
	ctx.RegistrationCounts = counts

	return ctx, nil
}

// loadRegistrationCounts unions registrations with non-rejected submissions
// per offline mission, counting each pilot once.
func loadRegistrationCounts(db *gorm.DB) (map[uint]int, error) {
	type pairRow struct {
		MissionID uint
		UserID    uint
	}

	seen := map[uint]map[uint]bool{}
	record := func(rows []pairRow) {
		for _, row := range rows {
			if seen[row.MissionID] == nil {
				seen[row.MissionID] = map[uint]bool{}
			}
			seen[row.MissionID][row.UserID] = true
		}
	}

	var registrations []pairRow
	if err := db.Model(&models.MissionRegistration{}).
		Select("mission_id", "user_id").Scan(&registrations).Error; err != nil {
		return nil, err
	}
	record(registrations)

	var submissions []pairRow
	if err := db.Model(&models.MissionSubmission{}).
		Select("mission_id", "user_id").
		Where("status <> ?", models.SubmissionRejected).
		Scan(&submissions).Error; err != nil {
		return nil, err
	}
	record(submissions)

	counts := make(map[uint]int, len(seen))
	for missionID, users := range seen {
		counts[missionID] = len(users)
	}
	return counts, nil
}

// MissionAvailability decides whether the pilot may take the mission now
// and collects one human-readable reason per failed gate. The mission must
// come with MinimumRank and Prerequisites preloaded.
func MissionAvailability(mission *models.Mission, user *models.User, ctx *AvailabilityContext) (bool, []string) {
	if !mission.IsActive {
		return false, nil
	}

	var reasons []string

	if mission.MinimumRank != nil && user.XP < mission.MinimumRank.RequiredXP {
		reasons = append(reasons, fmt.Sprintf("Требуется ранг «%s»", mission.MinimumRank.Title))
	}

	for _, req := range mission.Prerequisites {
		if !ctx.CompletedMissions[req.RequiredMissionID] {
			reasons = append(reasons, fmt.Sprintf("Завершите миссию «%s»", ctx.titleOf(req.RequiredMissionID)))
		}
	}

	reported := map[uint]bool{}
	for _, missionID := range ctx.BranchDependencies[mission.ID] {
		if !ctx.CompletedMissions[missionID] && !reported[missionID] {
			reported[missionID] = true
			reasons = append(reasons, fmt.Sprintf(
				"Продолжение ветки откроется после миссии «%s»", ctx.titleOf(missionID)))
		}
	}

	return len(reasons) == 0, reasons
}

// RegistrationIsOpen reports whether an offline event still takes
// registrations. Orthogonal to MissionAvailability: a mission can be
// visible yet closed for registration.
func RegistrationIsOpen(mission *models.Mission, ctx *AvailabilityContext) bool {
	if mission.Format != models.FormatOffline {
		return false
	}
	if mission.RegistrationDeadline != nil && mission.RegistrationDeadline.Before(ctx.Now) {
		return false
	}
	if mission.EventStartsAt != nil && mission.EventStartsAt.Before(ctx.Now) {
		return false
	}
	if mission.Capacity != nil && ctx.RegistrationCounts[mission.ID] >= *mission.Capacity {
		return false
	}
	return true
}

func (ctx *AvailabilityContext) titleOf(missionID uint) string {
	if title, ok := ctx.MissionTitles[missionID]; ok && title != "" {
		return title
	}
	return fmt.Sprintf("#%d", missionID)
}
