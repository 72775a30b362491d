package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/gyeh/clinicbill/internal/lock"
	"github.com/gyeh/clinicbill/internal/model"
)

// Settler submits a settlement request to the backend. A nil error means
// the server accepted the whole batch.
type Settler interface {
	SettleBill(ctx context.Context, requestID uuid.UUID, req *model.SettlementRequest) error
}

// Coordinator runs the two-phase settlement: snapshot Pending items, submit
// them in one request, then flip all of them to Completed on success.
// Settlement for one patient is serialized through the Locker.
type Coordinator struct {
	book     *Book
	settler  Settler
	locks    lock.Locker
	doctorID string
	log      zerolog.Logger
	nowFunc  func() time.Time

	mu        sync.Mutex
	completed map[string]bool
}

func NewCoordinator(book *Book, settler Settler, locks lock.Locker, doctorID string, log zerolog.Logger) *Coordinator {
	if locks == nil {
		locks = lock.NewInflight()
	}
	return &Coordinator{
		book:      book,
		settler:   settler,
		locks:     locks,
		doctorID:  doctorID,
		log:       log,
		nowFunc:   time.Now,
		completed: make(map[string]bool),
	}
}

// Settle pays every Pending line item of one patient.
//
// Local validation failures (*model.NoPendingItemsError,
// *model.InvalidSettlementError, model.ErrSettlementInFlight) never reach
// the network. A backend failure leaves every item Pending and is returned
// as a retryable *model.NetworkError.
func (c *Coordinator) Settle(ctx context.Context, patientID string) (*model.SettlementResult, error) {
	start := c.nowFunc()

	release, err := c.locks.TryAcquire(ctx, patientID)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, fmt.Errorf("settle patient %s: %w", patientID, model.ErrSettlementInFlight)
		}
		return nil, fmt.Errorf("settle patient %s: lock: %w", patientID, err)
	}
	defer release()

	pb, err := c.book.Get(patientID)
	if err != nil {
		return nil, fmt.Errorf("settle patient %s: %w", patientID, err)
	}

	tests, medicines := PendingItems(pb)
	if len(tests)+len(medicines) == 0 {
		return nil, &model.NoPendingItemsError{PatientID: patientID}
	}

	// Items without a backend id stay Pending: the server cannot match them.
	tests, skippedTests := withBackendID(tests)
	medicines, skippedMedicines := withBackendID(medicines)
	skipped := skippedTests + skippedMedicines
	if skipped > 0 {
		c.log.Warn().
			Str("patient_id", patientID).
			Int("skipped", skipped).
			Msg("pending items without a backend id left out of settlement")
	}

	req := BuildSettlementRequest(pb.PatientID, c.doctorID, tests, medicines)
	if req.Empty() {
		reason := "no pending item has a positive price"
		if len(tests)+len(medicines) == 0 {
			reason = "no pending item has a backend id"
		}
		return nil, &model.InvalidSettlementError{
			PatientID: patientID,
			Reason:    reason,
		}
	}

	requestID := uuid.New()
	log := c.log.With().
		Str("patient_id", patientID).
		Str("request_id", requestID.String()).
		Logger()
	log.Info().
		Int("tests", len(req.Tests)).
		Int("medicines", len(req.Medicines)).
		Msg("submitting settlement")

	if err := c.settler.SettleBill(ctx, requestID, req); err != nil {
		log.Error().Err(err).Msg("settlement failed, items left pending")
		var ne *model.NetworkError
		if !errors.As(err, &ne) {
			err = &model.NetworkError{Op: "settle", Err: err}
		}
		return nil, err
	}

	// The server has applied the batch; reconcile even if ctx is done.
	snapshot := make(map[string]bool, len(tests)+len(medicines))
	for _, li := range tests {
		snapshot[itemKey(li)] = true
	}
	for _, li := range medicines {
		snapshot[itemKey(li)] = true
	}
	err = c.book.Update(patientID, func(next *model.PatientBilling) error {
		markCompleted(next.Tests, snapshot)
		markCompleted(next.Medicines, snapshot)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("patient left the book before reconciliation")
	}
	c.setBillingCompleted(patientID)

	result := &model.SettlementResult{
		RequestID:        requestID,
		PatientID:        patientID,
		TestsSettled:     len(tests),
		MedicinesSettled: len(medicines),
		Skipped:          skipped,
		Amount:           ComputeTotals(nil, tests, medicines, model.StatusPending).Grand,
		SettledAt:        c.nowFunc(),
	}
	result.Duration = result.SettledAt.Sub(start)

	log.Info().
		Str("amount", result.Amount.StringFixed(2)).
		Dur("duration", result.Duration).
		Msg("settlement complete")
	return result, nil
}

// BillingCompleted reports whether a settlement succeeded for the patient in
// this session. It only gates UI affordances; line-item status is the
// source of truth.
func (c *Coordinator) BillingCompleted(patientID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed[patientID]
}

func (c *Coordinator) setBillingCompleted(patientID string) {
	c.mu.Lock()
	c.completed[patientID] = true
	c.mu.Unlock()
}

// BuildSettlementRequest keeps only Pending items with a positive price
// and a backend-issued id.
func BuildSettlementRequest(patientID, doctorID string, tests, medicines []model.LineItem) *model.SettlementRequest {
	return &model.SettlementRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		Tests: lo.FilterMap(tests, func(li model.LineItem, _ int) (model.SettlementTest, bool) {
			return model.NewSettlementTest(li), settleable(li)
		}),
		Medicines: lo.FilterMap(medicines, func(li model.LineItem, _ int) (model.SettlementMedicine, bool) {
			return model.NewSettlementMedicine(li), settleable(li)
		}),
	}
}

func settleable(li model.LineItem) bool {
	return li.Billable(model.StatusPending) && !li.Derived
}

func withBackendID(items []model.LineItem) (kept []model.LineItem, skipped int) {
	kept = lo.Reject(items, func(li model.LineItem, _ int) bool { return li.Derived })
	return kept, len(items) - len(kept)
}

func itemKey(li model.LineItem) string {
	return string(li.Kind) + ":" + li.ID
}

func markCompleted(items []model.LineItem, keys map[string]bool) {
	for i := range items {
		if items[i].Status == model.StatusPending && keys[itemKey(items[i])] {
			items[i].Status = model.StatusCompleted
		}
	}
}
