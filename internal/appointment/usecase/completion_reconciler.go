package usecase

import (
	"context"
	"time"

	"github.com/allisson/appointments/internal/appointment/domain"
	apperrors "github.com/allisson/appointments/internal/errors"
)

// completionReconciler implements CompletionReconciler.
type completionReconciler struct {
	ledger LedgerRepository
	now    func() time.Time
}

// NewCompletionReconciler creates the reconciler over the central ledger.
func NewCompletionReconciler(ledger LedgerRepository) CompletionReconciler {
	return &completionReconciler{
		ledger: ledger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile marks the ledger row completed. Applying the same signal again is
// a no-op. A missing row yields ErrAppointmentNotFoundYet, which callers retry.
func (r *completionReconciler) Reconcile(ctx context.Context, signal domain.CompletionSignal) error {
	_, err := r.ledger.UpdateStatus(ctx, signal.AppointmentID, domain.StatusCompleted, r.now())
	if err == nil {
		return nil
	}

	if apperrors.Is(err, apperrors.ErrNotFound) {
		return apperrors.Wrapf(domain.ErrAppointmentNotFoundYet, "appointment %s", signal.AppointmentID)
	}
	return apperrors.Classify(apperrors.ErrStore, err)
}
