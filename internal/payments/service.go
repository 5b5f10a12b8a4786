// Package payments tracks individual payment attempts against an invoiced
// billing cycle or adjustment. A transaction snapshots the owner's amounts at
// creation and walks a fixed status graph; completing one marks the owner paid.
package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyworks/licensing-backend/internal/reconcile"
	"github.com/tallyworks/licensing-backend/pkg/db"
	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
	"github.com/tallyworks/licensing-backend/pkg/logger"
	"github.com/tallyworks/licensing-backend/pkg/metrics"
	"github.com/tallyworks/licensing-backend/pkg/pagination"
	"github.com/tallyworks/licensing-backend/pkg/refgen"
)

type cycleSource interface {
	Get(ctx context.Context, id uuid.UUID) (*models.BillingCycle, error)
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error
}

type adjustmentSource interface {
	Get(ctx context.Context, id uuid.UUID) (*models.LicenseAdjustment, error)
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service defines payment transaction operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PaymentTransaction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
	ListForCycle(ctx context.Context, billingCycleID uuid.UUID, params pagination.Params) (*List, error)
	ListForAdjustment(ctx context.Context, adjustmentID uuid.UUID, params pagination.Params) (*List, error)
	Process(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
	Complete(ctx context.Context, id uuid.UUID, at time.Time) (*models.PaymentTransaction, error)
	Fail(ctx context.Context, id uuid.UUID, reason string) (*models.PaymentTransaction, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
	Refund(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
}

// CreateInput names the invoiced record being paid. Exactly one owner id must
// be set; amounts are always copied from the owner, never supplied by callers.
type CreateInput struct {
	BillingCycleID *uuid.UUID
	AdjustmentID   *uuid.UUID
	PaymentMethod  enums.PaymentMethod
	InitiatedAt    *time.Time
}

type service struct {
	repo        Repository
	cycles      cycleSource
	adjustments adjustmentSource
	refs        refgen.Generator
	metrics     *metrics.BillingMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds a payments service with the required dependencies.
func NewService(repo Repository, cycles cycleSource, adjustments adjustmentSource, refs refgen.Generator, billingMetrics *metrics.BillingMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if cycles == nil {
		return nil, fmt.Errorf("billing cycle source required")
	}
	if adjustments == nil {
		return nil, fmt.Errorf("adjustment source required")
	}
	if refs == nil {
		return nil, fmt.Errorf("reference generator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		cycles:      cycles,
		adjustments: adjustments,
		refs:        refs,
		metrics:     billingMetrics,
		logg:        logg,
		now:         time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PaymentTransaction, error) {
	if (input.BillingCycleID == nil) == (input.AdjustmentID == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"exactly one of billing_cycle_id or adjustment_id is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}

	txn := &models.PaymentTransaction{
		BillingCycleID: input.BillingCycleID,
		AdjustmentID:   input.AdjustmentID,
		PaymentMethod:  input.PaymentMethod,
		Status:         enums.PaymentTransactionStatusPending,
	}

	// Snapshot the owner's invoiced amounts verbatim so reconciliation can
	// hold the transaction to the same rate the invoice used.
	switch {
	case input.BillingCycleID != nil:
		cycle, err := s.cycles.Get(ctx, *input.BillingCycleID)
		if err != nil {
			return nil, err
		}
		if cycle.InvoiceSentAt == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				"billing cycle has not been invoiced")
		}
		txn.AmountUSD = cycle.TotalAmountUSD
		txn.AmountLocal = cycle.TotalAmountLocal
		txn.CurrencyCode = cycle.BillingCurrencyCode
		txn.ExchangeRateUsed = cycle.ExchangeRateUsed
	default:
		adj, err := s.adjustments.Get(ctx, *input.AdjustmentID)
		if err != nil {
			return nil, err
		}
		if adj.InvoiceSentAt == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				"adjustment has not been invoiced")
		}
		txn.AmountUSD = adj.TotalAmountUSD
		txn.AmountLocal = adj.TotalAmountLocal
		txn.CurrencyCode = adj.BillingCurrencyCode
		txn.ExchangeRateUsed = adj.ExchangeRateUsed
	}

	txn.InitiatedAt = s.now().UTC()
	if input.InitiatedAt != nil {
		txn.InitiatedAt = input.InitiatedAt.UTC()
	}

	guid, err := s.refs.GUID()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate transaction guid")
	}
	txn.GUID = guid
	reference, err := s.refs.PaymentReference()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate payment reference")
	}
	txn.PaymentReference = reference

	if err := reconcile.ValidateTransaction(txn); err != nil {
		s.metrics.IncReconciliationFailure(string(pkgerrors.KindOf(err)))
		return nil, err
	}

	created, err := s.repo.Create(ctx, txn)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.AlreadyExists(err, "transaction guid or reference already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert payment transaction")
	}
	s.metrics.IncCreated("payment_transaction")

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"transaction_id":    created.ID.String(),
		"payment_reference": created.PaymentReference,
		"amount_usd":        created.AmountUSD.String(),
	}), "payment transaction created")

	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment transaction")
	}
	return txn, nil
}

func (s *service) ListForCycle(ctx context.Context, billingCycleID uuid.UUID, params pagination.Params) (*List, error) {
	if billingCycleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing cycle id required")
	}
	list, err := s.repo.ListByOwner(ctx, &billingCycleID, nil, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment transactions")
	}
	return list, nil
}

func (s *service) ListForAdjustment(ctx context.Context, adjustmentID uuid.UUID, params pagination.Params) (*List, error) {
	if adjustmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment id required")
	}
	list, err := s.repo.ListByOwner(ctx, nil, &adjustmentID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment transactions")
	}
	return list, nil
}

// Process moves PENDING -> PROCESSING.
func (s *service) Process(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	return s.transition(ctx, id, enums.PaymentTransactionStatusProcessing, nil)
}

// Complete moves PROCESSING -> COMPLETED, stamps completed_at and marks the
// owning invoice paid. The edge set makes PENDING -> COMPLETED unreachable:
// every payment observes PROCESSING before settling.
func (s *service) Complete(ctx context.Context, id uuid.UUID, at time.Time) (*models.PaymentTransaction, error) {
	txn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = s.now().UTC()
	}
	if at.Before(txn.InitiatedAt) {
		return nil, pkgerrors.DateSequenceInvalid("completed_at precedes initiated_at")
	}

	updated, err := s.transition(ctx, id, enums.PaymentTransactionStatusCompleted,
		map[string]any{"completed_at": at})
	if err != nil {
		return nil, err
	}

	switch {
	case updated.BillingCycleID != nil:
		err = s.cycles.MarkPaid(ctx, *updated.BillingCycleID, at)
	case updated.AdjustmentID != nil:
		err = s.adjustments.MarkPaid(ctx, *updated.AdjustmentID, at)
	}
	if err != nil {
		// The transaction settled; the owner update is retryable by hand.
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"transaction_id": updated.ID.String(),
		}), "completed transaction could not mark its invoice paid", err)
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "transaction_id", updated.ID.String()),
		"payment transaction completed")
	return updated, nil
}

// Fail records a non-retryable payment failure. The reason is mandatory so a
// FAILED row always explains itself.
func (s *service) Fail(ctx context.Context, id uuid.UUID, reason string) (*models.PaymentTransaction, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "failure reason is required")
	}
	return s.transition(ctx, id, enums.PaymentTransactionStatusFailed, map[string]any{
		"failed_at":      s.now().UTC(),
		"failure_reason": reason,
	})
}

// Cancel abandons a transaction that has not settled.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	return s.transition(ctx, id, enums.PaymentTransactionStatusCancelled, nil)
}

// Refund moves COMPLETED -> REFUNDED. The owning invoice keeps its PAID
// status; refunds are reconciled out of band.
func (s *service) Refund(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	return s.transition(ctx, id, enums.PaymentTransactionStatusRefunded, nil)
}

// transition performs one CAS move along the status graph. Terminal states
// always surface TRANSACTION_ALREADY_FINAL; missing edges surface
// INVALID_STATUS_TRANSITION with both endpoints.
func (s *service) transition(ctx context.Context, id uuid.UUID, to enums.PaymentTransactionStatus, updates map[string]any) (*models.PaymentTransaction, error) {
	txn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := txn.Status
	if from.IsTerminal() {
		return nil, pkgerrors.TransactionAlreadyFinal(from.String())
	}
	if !from.CanTransitionTo(to) {
		return nil, pkgerrors.InvalidStatusTransition(from.String(), to.String())
	}

	rows, err := s.repo.UpdateStatusCAS(ctx, id, from, to, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaction status")
	}
	if rows == 0 {
		return nil, s.staleStatusError(ctx, id, to)
	}
	s.metrics.IncTransition(from.String(), to.String())

	return s.Get(ctx, id)
}

// staleStatusError re-reads a transaction after losing a CAS race and reports
// the move against the status actually observed.
func (s *service) staleStatusError(ctx context.Context, id uuid.UUID, to enums.PaymentTransactionStatus) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status.IsTerminal() {
		return pkgerrors.TransactionAlreadyFinal(current.Status.String())
	}
	return pkgerrors.InvalidStatusTransition(current.Status.String(), to.String())
}
