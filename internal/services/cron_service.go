package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kerrdetailing/booking-backend/internal/config"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron        *cron.Cron
	reminderSvc *ReminderService
	wizardSvc   *WizardService
	schedule    string
}

// NewCronService creates a new CronService
func NewCronService(reminderSvc *ReminderService, wizardSvc *WizardService, cfg config.ReminderConfig) *CronService {
	// Seconds precision keeps the schedule format consistent with the
	// REMINDER_CRON_SCHEDULE setting ("0 0 17 * * *" = 5 PM daily).
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:        c,
		reminderSvc: reminderSvc,
		wizardSvc:   wizardSvc,
		schedule:    cfg.CronSchedule,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	// Job 1: Send appointment reminders on the configured schedule
	_, err := s.cron.AddFunc(s.schedule, s.reminderJob)
	if err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}
	log.Printf("✓ Scheduled: Appointment reminders (%s)\n", s.schedule)

	// Job 2: Drop abandoned wizard sessions every 15 minutes
	_, err = s.cron.AddFunc("0 */15 * * * *", s.sessionCleanupJob)
	if err != nil {
		return fmt.Errorf("failed to schedule session cleanup job: %w", err)
	}
	log.Println("✓ Scheduled: Wizard session cleanup (every 15 minutes)")

	s.cron.Start()
	log.Println("✓ Cron service started successfully")

	return nil
}

// Stop stops all cron jobs
func (s *CronService) Stop() {
	log.Println("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("✓ Cron service stopped")
}

// reminderJob runs the daily reminder dispatch
func (s *CronService) reminderJob() {
	log.Println("[CRON] Starting reminder dispatch job...")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	summary, err := s.reminderSvc.CheckReminders(ctx)
	if err != nil {
		log.Printf("[CRON ERROR] Failed to dispatch reminders: %v\n", err)
		return
	}

	duration := time.Since(startTime)
	log.Printf("[CRON] ✓ Reminders: %d sent, %d failed of %d in %v\n",
		summary.SuccessCount, summary.FailureCount, summary.TotalBookings, duration)
}

// sessionCleanupJob drops expired wizard sessions
func (s *CronService) sessionCleanupJob() {
	removed := s.wizardSvc.CleanupExpired()
	if removed > 0 {
		log.Printf("[CRON] ✓ Removed %d expired booking sessions\n", removed)
	}
}

// RunRemindersNow runs the reminder job immediately (for testing)
func (s *CronService) RunRemindersNow() error {
	log.Println("[MANUAL] Running reminder dispatch now...")
	s.reminderJob()
	return nil
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
