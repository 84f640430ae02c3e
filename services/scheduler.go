// services/scheduler.go
package services

import (
	"log"
	"time"

	"pilot-onboarding-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartEventScheduler deactivates offline missions whose event has ended so
// they drop out of the mission list without HR touching them.
func (s *MissionService) StartEventScheduler() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[Scheduler] Failed to create scheduler: %v", err)
		return
	}
	sched.Start()

	// Every minute: close out finished offline events
	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var missions []models.Mission
			now := time.Now()
			err := s.DB.Where("format = ? AND is_active = ? AND event_ends_at IS NOT NULL AND event_ends_at <= ?",
				models.FormatOffline, true, now).
				Find(&missions).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, m := range missions {
				m.IsActive = false
				if err := s.DB.Save(&m).Error; err != nil {
					log.Printf("[Scheduler] Failed to close event mission %d: %v", m.ID, err)
				} else {
					log.Printf("✅ Event mission closed: %s", m.Title)
				}
			}
		}),
	)
	if err != nil {
		log.Printf("[Scheduler] Failed to register event sweep job: %v", err)
	}
}
