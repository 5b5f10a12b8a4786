// Package adjustments creates and advances mid-cycle seat additions: prorate,
// tax, project into the tenant's billing currency, then persist behind the
// reconciliation gate.
package adjustments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
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

// AppliesTo is the tax-rule scope for seat adjustments.
const AppliesTo = "LICENSE_ADJUSTMENT"

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

// Service defines adjustment operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.LicenseAdjustment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.LicenseAdjustment, error)
	List(ctx context.Context, licenseID uuid.UUID, params pagination.Params) (*List, error)
	MarkInvoiceSent(ctx context.Context, id uuid.UUID, at time.Time) (*models.LicenseAdjustment, error)
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CreateInput captures one seat-addition event.
type CreateInput struct {
	LicenseID           uuid.UUID
	EmployeesAddedCount int
	MonthsRemaining     decimal.Decimal
	PricePerEmployeeUSD decimal.Decimal
	AdjustmentDate      *time.Time
}

type service struct {
	repo         Repository
	licenses     licenseReader
	rates        rateSource
	refs         refgen.Generator
	metrics      *metrics.BillingMetrics
	logg         *logger.Logger
	baseCurrency string
	now          func() time.Time
}

// NewService builds an adjustments service with the required dependencies.
func NewService(repo Repository, licenses licenseReader, rateSvc rateSource, refs refgen.Generator, billingMetrics *metrics.BillingMetrics, logg *logger.Logger, baseCurrency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("adjustments repository required")
	}
	if licenses == nil {
		return nil, fmt.Errorf("license reader required")
	}
	if rateSvc == nil {
		return nil, fmt.Errorf("rates service required")
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
	return &service{
		repo:         repo,
		licenses:     licenses,
		rates:        rateSvc,
		refs:         refs,
		metrics:      billingMetrics,
		logg:         logg,
		baseCurrency: baseCurrency,
		now:          time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.LicenseAdjustment, error) {
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

	adjustmentDate := s.now().UTC()
	if input.AdjustmentDate != nil {
		adjustmentDate = input.AdjustmentDate.UTC()
	}
	if adjustmentDate.Before(license.CurrentPeriodStart) || adjustmentDate.After(license.CurrentPeriodEnd) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"adjustment_date falls outside the current billing period")
	}

	tenant, err := s.licenses.Tenant(ctx, license.TenantID)
	if err != nil {
		return nil, err
	}

	subtotal, err := proration.Subtotal(proration.Input{
		EmployeesAddedCount: input.EmployeesAddedCount,
		MonthsRemaining:     input.MonthsRemaining,
		PricePerEmployeeUSD: input.PricePerEmployeeUSD,
	})
	if err != nil {
		return nil, err
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate adjustment guid")
	}
	snapshotJSON, err := models.MarshalTaxSnapshots(taxed.Snapshot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode tax snapshot")
	}

	adj := &models.LicenseAdjustment{
		GUID:                guid,
		LicenseID:           license.ID,
		EmployeesAddedCount: input.EmployeesAddedCount,
		MonthsRemaining:     input.MonthsRemaining,
		PricePerEmployeeUSD: input.PricePerEmployeeUSD,
		SubtotalUSD:         subtotal,
		TaxAmountUSD:        taxed.TaxAmountUSD,
		TotalAmountUSD:      taxed.TotalAmountUSD,
		BillingCurrencyCode: tenant.BillingCurrencyCode,
		ExchangeRateUsed:    snap.Rate,
		SubtotalLocal:       local.Subtotal,
		TaxAmountLocal:      local.Tax,
		TotalAmountLocal:    local.Total,
		TaxRulesApplied:     snapshotJSON,
		PaymentStatus:       enums.AdjustmentPaymentStatusPending,
		AdjustmentDate:      adjustmentDate,
	}

	if err := reconcile.ValidateAdjustment(adj); err != nil {
		s.metrics.IncReconciliationFailure(string(pkgerrors.KindOf(err)))
		return nil, err
	}

	created, err := s.repo.Create(ctx, adj)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.AlreadyExists(err, "adjustment guid already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert adjustment")
	}
	s.metrics.IncCreated("adjustment")

	// total_seats_purchased is derived by the store; surface the fresh value in
	// logs without blocking on it.
	if refreshed, err := s.licenses.Refresh(ctx, license.ID); err == nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"license_id":  license.ID.String(),
			"total_seats": refreshed.TotalSeatsPurchased,
		})
	}
	s.logg.Info(ctx, "license adjustment created")

	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.LicenseAdjustment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment id required")
	}
	adj, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "adjustment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load adjustment")
	}
	return adj, nil
}

func (s *service) List(ctx context.Context, licenseID uuid.UUID, params pagination.Params) (*List, error) {
	if licenseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license id required")
	}
	list, err := s.repo.ListByLicense(ctx, licenseID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list adjustments")
	}
	return list, nil
}

// MarkInvoiceSent moves PENDING -> INVOICED and stamps invoice_sent_at.
func (s *service) MarkInvoiceSent(ctx context.Context, id uuid.UUID, at time.Time) (*models.LicenseAdjustment, error) {
	adj, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if adj.PaymentStatus != enums.AdjustmentPaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("adjustment is %s, only PENDING adjustments can be invoiced", adj.PaymentStatus))
	}
	if at.Before(adj.AdjustmentDate) {
		return nil, pkgerrors.DateSequenceInvalid("invoice_sent_at precedes adjustment_date")
	}

	rows, err := s.repo.UpdateStatusCAS(ctx, id,
		enums.AdjustmentPaymentStatusPending,
		enums.AdjustmentPaymentStatusInvoiced,
		map[string]any{"invoice_sent_at": at})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark adjustment invoiced")
	}
	if rows == 0 {
		return nil, s.staleStatusError(ctx, id)
	}
	return s.Get(ctx, id)
}

// MarkPaid moves INVOICED -> PAID; invoked when a payment transaction against
// this adjustment completes.
func (s *service) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error {
	adj, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if adj.PaymentStatus != enums.AdjustmentPaymentStatusInvoiced {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("adjustment is %s, only INVOICED adjustments can be paid", adj.PaymentStatus))
	}
	if adj.InvoiceSentAt == nil {
		return pkgerrors.DateSequenceInvalid("adjustment has no invoice_sent_at")
	}
	if at.Before(*adj.InvoiceSentAt) {
		return pkgerrors.DateSequenceInvalid("payment_completed_at precedes invoice_sent_at")
	}

	rows, err := s.repo.UpdateStatusCAS(ctx, id,
		enums.AdjustmentPaymentStatusInvoiced,
		enums.AdjustmentPaymentStatusPaid,
		map[string]any{"payment_completed_at": at})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark adjustment paid")
	}
	if rows == 0 {
		return s.staleStatusError(ctx, id)
	}
	return nil
}

// staleStatusError re-reads after a zero-row conditional update and reports
// the state the concurrent winner left behind.
func (s *service) staleStatusError(ctx context.Context, id uuid.UUID) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("adjustment status changed concurrently to %s", current.PaymentStatus))
}
