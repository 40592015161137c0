package jobs

// CompleteFinishedBookings moves confirmed bookings whose slot has ended to completed.
func (r *Runner) CompleteFinishedBookings() {
	ctx, cancel := r.context()
	defer cancel()

	ids, err := r.svc.Bookings.CompleteFinished(ctx, r.now(), r.loc)
	if err != nil {
		r.log.WithError(err).Error("🔥 complete finished bookings failed")
		return
	}
	if len(ids) > 0 {
		r.log.WithField("count", len(ids)).Info("✅ completed finished bookings")
	}
}
