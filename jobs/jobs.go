package jobs

import (
	"context"
	"time"

	"github.com/anjiri1684/field_booking/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	CompleteFinishedSpec = "*/15 * * * *"
	RemindExpiringSpec   = "0 9 * * *"

	jobTimeout = 2 * time.Minute
)

type Runner struct {
	svc *services.Services
	log *logrus.Logger
	loc *time.Location
	now func() time.Time
}

// NewRunner builds the cron jobs. loc is the zone booking times are kept in.
func NewRunner(svc *services.Services, log *logrus.Logger, loc *time.Location) *Runner {
	return &Runner{svc: svc, log: log, loc: loc, now: time.Now}
}

// Schedule registers every job on c in loc.
func (r *Runner) Schedule(c *cron.Cron) error {
	if _, err := c.AddFunc(CompleteFinishedSpec, r.CompleteFinishedBookings); err != nil {
		return err
	}
	if _, err := c.AddFunc(RemindExpiringSpec, r.RemindExpiringPoints); err != nil {
		return err
	}
	return nil
}

func (r *Runner) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), jobTimeout)
}
