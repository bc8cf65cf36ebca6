package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/crreddy/polysis/core"
)

// Maintenance job names
const (
	JobExpireAnnouncements = "expire-announcements"
	JobClearOTPs           = "clear-expired-otps"
	JobResetRateLimits     = "reset-rate-limits"
)

type (
	AnnouncementExpirer interface {
		DeactivateExpired(ctx context.Context) (int64, error)
	}

	OTPCleaner interface {
		ClearExpiredOTPs(ctx context.Context) (int64, error)
	}

	RateLimitCleaner interface {
		Cleanup()
	}
)

// AddMaintenanceJobs schedules the periodic cleanups.
func AddMaintenanceJobs(s *Scheduler, ann AnnouncementExpirer, otps OTPCleaner, limiter RateLimitCleaner, logger core.Logger) error {
	jobs := []Job{
		{
			Name:    JobExpireAnnouncements,
			Spec:    "@every 15m",
			Timeout: time.Minute,
			Run: func(ctx context.Context) error {
				n, err := ann.DeactivateExpired(ctx)
				if n > 0 {
					logger.Info(fmt.Sprintf("deactivated %d expired announcements", n))
				}
				return err
			},
		},
		{
			Name:    JobClearOTPs,
			Spec:    "@hourly",
			Timeout: time.Minute,
			Run: func(ctx context.Context) error {
				_, err := otps.ClearExpiredOTPs(ctx)
				return err
			},
		},
		{
			Name: JobResetRateLimits,
			Spec: "@hourly",
			Run: func(context.Context) error {
				limiter.Cleanup()
				return nil
			},
		},
	}

	for _, job := range jobs {
		if err := s.Add(job); err != nil {
			return err
		}
	}
	return nil
}
