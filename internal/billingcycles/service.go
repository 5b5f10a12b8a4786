// Package billingcycles folds a subscription period into one invoice: the
// prorated base charge plus every adjustment dated inside the period, taxed
// and projected into the tenant's billing currency.
package billingcycles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tallyworks/licensing-backend/internal/currency"
	"github.com/tallyworks/licensing-backend/internal/proration"
	"github.com/tallyworks/licensing-backend/internal/rates"
	"github.com/tallyworks/licensing-backend/internal/reconcile"
	"github.com/tallyworks/licensing-backend/internal/taxes"
	"github.com/tallyworks/licensing-backend/pkg/db"
	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
	"github.com/tallyworks/licensing-backend/pkg/logger"
	"github.com/tallyworks/licensing-backend/pkg/metrics"
	"github.com/tallyworks/licensing-backend/pkg/pagination"
	"github.com/tallyworks/licensing-backend/pkg/refgen"
)

// AppliesTo is the tax-rule scope for cycle invoices.
const AppliesTo = "BILLING_CYCLE"

type licenseReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.GlobalLicenseRow, error)
	Refresh(ctx context.Context, id uuid.UUID) (*models.GlobalLicenseRow, error)
	Tenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	EnsureBillable(license *models.GlobalLicenseRow) error
}

type rateSource interface {
	Rate(ctx context.Context, fromCode, toCode string) (*rates.Snapshot, error)
	TaxRules(ctx context.Context, jurisdiction, appliesTo string) ([]models.TaxRuleSnapshot, error)
}

type adjustmentSource interface {
	FindInPeriod(ctx context.Context, licenseID uuid.UUID, start, end time.Time) ([]models.LicenseAdjustment, error)
}

// Service defines billing cycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.BillingCycle, error)
	Get(ctx context.Context, id uuid.UUID) (*models.BillingCycle, error)
	List(ctx context.Context, licenseID uuid.UUID, params pagination.Params) (*List, error)
	MarkInvoiceSent(ctx context.Context, id uuid.UUID, at time.Time) (*models.BillingCycle, error)
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CreateInput describes the period to aggregate. Empty bounds default to the
// license's current period; an empty due date defaults to period end plus the
// configured grace window.
type CreateInput struct {
	LicenseID      uuid.UUID
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	PaymentDueDate *time.Time
}

type service struct {
	repo         Repository
	licenses     licenseReader
	rates        rateSource
	adjustments  adjustmentSource
	refs         refgen.Generator
	metrics      *metrics.BillingMetrics
	logg         *logger.Logger
	baseCurrency string
	dueGraceDays int
	now          func() time.Time
}

// NewService builds a billing cycles service with the required dependencies.
func NewService(repo Repository, licenses licenseReader, rateSvc rateSource, adjSource adjustmentSource, refs refgen.Generator, billingMetrics *metrics.BillingMetrics, logg *logger.Logger, baseCurrency string, dueGraceDays int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("billing cycles repository required")
	}
	if licenses == nil {
		return nil, fmt.Errorf("license reader required")
	}
	if rateSvc == nil {
		return nil, fmt.Errorf("rates service required")
	}
	if adjSource == nil {
		return nil, fmt.Errorf("adjustment source required")
	}
	if refs == nil {
		return nil, fmt.Errorf("reference generator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if baseCurrency == "" {
		baseCurrency = "USD"
	}
	if dueGraceDays <= 0 {
		dueGraceDays = 14
	}
	return &service{
		repo:         repo,
		licenses:     licenses,
		rates:        rateSvc,
		adjustments:  adjSource,
		refs:         refs,
		metrics:      billingMetrics,
		logg:         logg,
		baseCurrency: baseCurrency,
		dueGraceDays: dueGraceDays,
		now:          time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.BillingCycle, error) {
	if input.LicenseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license id required")
	}

	license, err := s.licenses.Get(ctx, input.LicenseID)
	if err != nil {
		return nil, err
	}
	if err := s.licenses.EnsureBillable(license); err != nil {
		return nil, err
	}

	periodStart := license.CurrentPeriodStart
	if input.PeriodStart != nil {
		periodStart = input.PeriodStart.UTC()
	}
	periodEnd := license.CurrentPeriodEnd
	if input.PeriodEnd != nil {
		periodEnd = input.PeriodEnd.UTC()
	}
	if !periodEnd.After(periodStart) {
		return nil, pkgerrors.DateSequenceInvalid("period_end must be after period_start")
	}

	dueDate := periodEnd.AddDate(0, 0, s.dueGraceDays)
	if input.PaymentDueDate != nil {
		dueDate = input.PaymentDueDate.UTC()
	}
	if dueDate.Before(periodEnd) {
		return nil, pkgerrors.DateSequenceInvalid("payment_due_date precedes period_end")
	}

	tenant, err := s.licenses.Tenant(ctx, license.TenantID)
	if err != nil {
		return nil, err
	}

	baseAmount, err := proration.BaseCharge(license.BasePriceUSD, decimal.NewFromInt(int64(license.BillingCycleMonths)))
	if err != nil {
		return nil, err
	}

	adjs, err := s.adjustments.FindInPeriod(ctx, license.ID, periodStart, periodEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load period adjustments")
	}
	// Signed fold: mid-cycle reductions carry negative totals.
	adjustmentsAmount := lo.Reduce(adjs, func(acc decimal.Decimal, adj models.LicenseAdjustment, _ int) decimal.Decimal {
		return acc.Add(adj.TotalAmountUSD)
	}, decimal.Zero)

	subtotal := baseAmount.Add(adjustmentsAmount)
	if subtotal.IsNegative() {
		return nil, pkgerrors.TotalCalculation("cycle subtotal is negative after folding adjustments")
	}

	var rules []models.TaxRuleSnapshot
	if !tenant.TaxExempt {
		rules, err = s.rates.TaxRules(ctx, tenant.Jurisdiction, AppliesTo)
		if err != nil {
			return nil, err
		}
	}
	taxed, err := taxes.Apply(subtotal, rules, !tenant.TaxExempt)
	if err != nil {
		return nil, err
	}

	snap, err := s.rates.Rate(ctx, s.baseCurrency, tenant.BillingCurrencyCode)
	if err != nil {
		return nil, err
	}
	local, err := currency.Project(currency.AmountsUSD{
		Subtotal: subtotal,
		Tax:      taxed.TaxAmountUSD,
		Total:    taxed.TotalAmountUSD,
	}, tenant.BillingCurrencyCode, snap.Rate)
	if err != nil {
		return nil, err
	}

	guid, err := s.refs.GUID()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate cycle guid")
	}
	snapshotJSON, err := models.MarshalTaxSnapshots(taxed.Snapshot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode tax snapshot")
	}

	cycle := &models.BillingCycle{
		GUID:                 guid,
		LicenseID:            license.ID,
		PeriodStart:          periodStart,
		PeriodEnd:            periodEnd,
		BaseEmployeeCount:    license.MinimumSeats,
		FinalEmployeeCount:   license.TotalSeatsPurchased,
		BaseAmountUSD:        baseAmount,
		AdjustmentsAmountUSD: adjustmentsAmount,
		SubtotalUSD:          subtotal,
		TaxAmountUSD:         taxed.TaxAmountUSD,
		TotalAmountUSD:       taxed.TotalAmountUSD,
		BillingCurrencyCode:  tenant.BillingCurrencyCode,
		ExchangeRateUsed:     snap.Rate,
		SubtotalLocal:        local.Subtotal,
		TaxAmountLocal:       local.Tax,
		TotalAmountLocal:     local.Total,
		TaxRulesApplied:      snapshotJSON,
		BillingStatus:        enums.BillingStatusPending,
		PaymentDueDate:       dueDate,
	}

	if err := reconcile.ValidateCycle(cycle); err != nil {
		s.metrics.IncReconciliationFailure(string(pkgerrors.KindOf(err)))
		return nil, err
	}

	created, err := s.repo.Create(ctx, cycle)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.AlreadyExists(err, "cycle guid already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert billing cycle")
	}
	s.metrics.IncCreated("billing_cycle")

	// billing_status on the license is store-derived; re-fetch, never compute.
	if refreshed, err := s.licenses.Refresh(ctx, license.ID); err == nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"license_id":     license.ID.String(),
			"billing_status": refreshed.BillingStatus,
		})
	}
	s.logg.Info(ctx, "billing cycle created")

	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.BillingCycle, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing cycle id required")
	}
	cycle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billing cycle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billing cycle")
	}
	return cycle, nil
}

func (s *service) List(ctx context.Context, licenseID uuid.UUID, params pagination.Params) (*List, error) {
	if licenseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license id required")
	}
	list, err := s.repo.ListByLicense(ctx, licenseID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list billing cycles")
	}
	return list, nil
}

// MarkInvoiceSent moves PENDING -> INVOICED and stamps invoice_sent_at.
func (s *service) MarkInvoiceSent(ctx context.Context, id uuid.UUID, at time.Time) (*models.BillingCycle, error) {
	cycle, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cycle.BillingStatus != enums.BillingStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cycle is %s, only PENDING cycles can be invoiced", cycle.BillingStatus))
	}
	if at.Before(cycle.PeriodEnd) {
		return nil, pkgerrors.DateSequenceInvalid("invoice_sent_at precedes period_end")
	}

	rows, err := s.repo.UpdateStatusCAS(ctx, id,
		enums.BillingStatusPending,
		enums.BillingStatusInvoiced,
		map[string]any{"invoice_sent_at": at})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cycle invoiced")
	}
	if rows == 0 {
		return nil, s.staleStatusError(ctx, id)
	}
	return s.Get(ctx, id)
}

// MarkPaid moves INVOICED -> PAID; invoked when a payment transaction against
// this cycle completes.
func (s *service) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error {
	cycle, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if cycle.BillingStatus != enums.BillingStatusInvoiced {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cycle is %s, only INVOICED cycles can be paid", cycle.BillingStatus))
	}
	if cycle.InvoiceSentAt == nil {
		return pkgerrors.DateSequenceInvalid("cycle has no invoice_sent_at")
	}
	if at.Before(*cycle.InvoiceSentAt) {
		return pkgerrors.DateSequenceInvalid("payment_completed_at precedes invoice_sent_at")
	}

	rows, err := s.repo.UpdateStatusCAS(ctx, id,
		enums.BillingStatusInvoiced,
		enums.BillingStatusPaid,
		map[string]any{"payment_completed_at": at})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cycle paid")
	}
	if rows == 0 {
		return s.staleStatusError(ctx, id)
	}
	return nil
}

func (s *service) staleStatusError(ctx context.Context, id uuid.UUID) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cycle status changed concurrently to %s", current.BillingStatus))
}
