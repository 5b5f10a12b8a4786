package licenses

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
)

type stubLicensesRepo struct {
	row    *models.GlobalLicenseRow
	tenant *models.Tenant
}

func (s *stubLicensesRepo) FindRow(ctx context.Context, id uuid.UUID) (*models.GlobalLicenseRow, error) {
	if s.row == nil || s.row.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.row, nil
}

func (s *stubLicensesRepo) FindRowByGUID(ctx context.Context, guid int) (*models.GlobalLicenseRow, error) {
	if s.row == nil || s.row.GUID != guid {
		return nil, gorm.ErrRecordNotFound
	}
	return s.row, nil
}

func (s *stubLicensesRepo) FindTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if s.tenant == nil || s.tenant.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.tenant, nil
}

func activeLicenseRow() *models.GlobalLicenseRow {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.GlobalLicenseRow{
		GlobalLicense: models.GlobalLicense{
			ID:                 uuid.New(),
			GUID:               456789,
			TenantID:           uuid.New(),
			LicenseType:        enums.LicenseTypeStandard,
			BillingCycleMonths: 3,
			BasePriceUSD:       decimal.RequireFromString("200.00"),
			MinimumSeats:       25,
			CurrentPeriodStart: start,
			CurrentPeriodEnd:   start.AddDate(0, 3, 0),
			NextRenewalDate:    start.AddDate(0, 3, 0),
			Status:             enums.LicenseStatusActive,
		},
		TotalSeatsPurchased: 35,
		BillingStatus:       "CURRENT",
	}
}

func TestGetAndGetByGUID(t *testing.T) {
	row := activeLicenseRow()
	svc, err := NewService(&stubLicensesRepo{row: row})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.Get(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalSeatsPurchased != 35 {
		t.Fatalf("total seats = %d, want 35", got.TotalSeatsPurchased)
	}

	got, err = svc.GetByGUID(context.Background(), row.GUID)
	if err != nil {
		t.Fatalf("get by guid: %v", err)
	}
	if got.ID != row.ID {
		t.Fatalf("guid lookup returned wrong row")
	}
}

func TestGetNotFound(t *testing.T) {
	svc, err := NewService(&stubLicensesRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestEnsureBillable(t *testing.T) {
	svc, err := NewService(&stubLicensesRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	row := activeLicenseRow()
	if err := svc.EnsureBillable(row); err != nil {
		t.Fatalf("active license should be billable: %v", err)
	}

	row = activeLicenseRow()
	row.Status = enums.LicenseStatusSuspended
	err = svc.EnsureBillable(row)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT for suspended license, got %v", err)
	}

	row = activeLicenseRow()
	row.CurrentPeriodEnd = row.CurrentPeriodStart
	if pkgerrors.KindOf(svc.EnsureBillable(row)) != pkgerrors.KindDateSequenceInvalid {
		t.Fatal("expected DATE_SEQUENCE_INVALID for collapsed period")
	}

	row = activeLicenseRow()
	row.NextRenewalDate = row.CurrentPeriodEnd.AddDate(0, 0, -1)
	if pkgerrors.KindOf(svc.EnsureBillable(row)) != pkgerrors.KindDateSequenceInvalid {
		t.Fatal("expected DATE_SEQUENCE_INVALID for early renewal date")
	}
}

func TestTenantLookup(t *testing.T) {
	tenant := &models.Tenant{
		ID:                  uuid.New(),
		Name:                "Acme Cameroon",
		CountryCode:         "CM",
		Jurisdiction:        "CM",
		BillingCurrencyCode: "XAF",
	}
	svc, err := NewService(&stubLicensesRepo{tenant: tenant})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.Tenant(context.Background(), tenant.ID)
	if err != nil {
		t.Fatalf("tenant: %v", err)
	}
	if got.BillingCurrencyCode != "XAF" {
		t.Fatalf("billing currency = %s, want XAF", got.BillingCurrencyCode)
	}

	_, err = svc.Tenant(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
