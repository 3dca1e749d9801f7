package jobs

import (
	"context"

	"gearshare-backend/internal/logger"
)

// CancelExpiredApprovals cancels approved rentals whose payment did not
// arrive within the grace period and frees their blocked dates.
func (jr *JobRunner) CancelExpiredApprovals() {
	jr.runWithRecovery("CancelExpiredApprovals", func() {
		ctx := context.Background()

		count, err := jr.services.Lifecycle.CancelExpiredApprovals(ctx, jr.config.PaymentGrace())
		if err != nil {
			logger.Error("Payment deadline sweep failed", "error", err)
			return
		}
		logger.Info("Cancelled expired approvals", "count", count)
	})
}

// ArchiveOldRentals moves completed rentals past the retention window
// into the archived state.
func (jr *JobRunner) ArchiveOldRentals() {
	jr.runWithRecovery("ArchiveOldRentals", func() {
		ctx := context.Background()

		count, err := jr.services.Lifecycle.ArchiveOldRentals(ctx, jr.config.Retention())
		if err != nil {
			logger.Error("Archive sweep failed", "error", err)
			return
		}
		logger.Info("Archived old rentals", "count", count)
	})
}
