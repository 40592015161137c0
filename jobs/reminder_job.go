package jobs

import (
	"fmt"

	"github.com/anjiri1684/field_booking/models"
	"github.com/sirupsen/logrus"
)

const expiryWarningDays = 7

// RemindExpiringPoints tells each user whose active points expire within
// a week how many they are about to lose.
func (r *Runner) RemindExpiringPoints() {
	ctx, cancel := r.context()
	defer cancel()

	until := r.now().UTC().AddDate(0, 0, expiryWarningDays)
	expiring, err := r.svc.Loyalty.ExpiringPoints(ctx, until)
	if err != nil {
		r.log.WithError(err).Error("🔥 load expiring points failed")
		return
	}

	for userID, points := range expiring {
		msg := fmt.Sprintf("%d of your loyalty points expire within %d days. Redeem them before they are gone.", points, expiryWarningDays)
		if _, err := r.svc.Notifications.Notify(ctx, &userID, "Points Expiring Soon", msg, models.NotificationSystem, nil); err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "points": points}).Warn("failed to send expiry reminder")
		}
	}
	if len(expiring) > 0 {
		r.log.WithField("users", len(expiring)).Info("✅ sent points expiry reminders")
	}
}
