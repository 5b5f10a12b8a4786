package adjustments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tallyworks/licensing-backend/internal/rates"
	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
	"github.com/tallyworks/licensing-backend/pkg/logger"
	"github.com/tallyworks/licensing-backend/pkg/pagination"
)

type stubAdjustmentsRepo struct {
	created   *models.LicenseAdjustment
	createErr error
	byID      map[uuid.UUID]*models.LicenseAdjustment
	casRows   int64
	casErr    error
	casFrom   enums.AdjustmentPaymentStatus
	casTo     enums.AdjustmentPaymentStatus
	casValues map[string]any
}

func (s *stubAdjustmentsRepo) Create(ctx context.Context, adj *models.LicenseAdjustment) (*models.LicenseAdjustment, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if adj.ID == uuid.Nil {
		adj.ID = uuid.New()
	}
	s.created = adj
	return adj, nil
}

func (s *stubAdjustmentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.LicenseAdjustment, error) {
	if adj, ok := s.byID[id]; ok {
		return adj, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAdjustmentsRepo) ListByLicense(ctx context.Context, licenseID uuid.UUID, params pagination.Params) (*List, error) {
	items := make([]models.LicenseAdjustment, 0, len(s.byID))
	for _, adj := range s.byID {
		if adj.LicenseID == licenseID {
			items = append(items, *adj)
		}
	}
	return &List{Items: items}, nil
}

func (s *stubAdjustmentsRepo) FindInPeriod(ctx context.Context, licenseID uuid.UUID, start, end time.Time) ([]models.LicenseAdjustment, error) {
	return nil, nil
}

func (s *stubAdjustmentsRepo) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to enums.AdjustmentPaymentStatus, updates map[string]any) (int64, error) {
	if s.casErr != nil {
		return 0, s.casErr
	}
	s.casFrom = from
	s.casTo = to
	s.casValues = updates
	if s.casRows > 0 {
		if adj, ok := s.byID[id]; ok {
			adj.PaymentStatus = to
			if at, ok := updates["invoice_sent_at"].(time.Time); ok {
				adj.InvoiceSentAt = &at
			}
			if at, ok := updates["payment_completed_at"].(time.Time); ok {
				adj.PaymentCompletedAt = &at
			}
		}
	}
	return s.casRows, nil
}

type stubLicenseReader struct {
	row    *models.GlobalLicenseRow
	tenant *models.Tenant
}

func (s *stubLicenseReader) Get(ctx context.Context, id uuid.UUID) (*models.GlobalLicenseRow, error) {
	if s.row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
	}
	return s.row, nil
}

func (s *stubLicenseReader) Refresh(ctx context.Context, id uuid.UUID) (*models.GlobalLicenseRow, error) {
	return s.Get(ctx, id)
}

func (s *stubLicenseReader) Tenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if s.tenant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
	}
	return s.tenant, nil
}

func (s *stubLicenseReader) EnsureBillable(license *models.GlobalLicenseRow) error {
	if license.Status != enums.LicenseStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "license not billable")
	}
	return nil
}

type stubRateSource struct {
	rate  *rates.Snapshot
	rules []models.TaxRuleSnapshot
}

func (s *stubRateSource) Rate(ctx context.Context, fromCode, toCode string) (*rates.Snapshot, error) {
	if s.rate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no exchange rate")
	}
	return s.rate, nil
}

func (s *stubRateSource) TaxRules(ctx context.Context, jurisdiction, appliesTo string) ([]models.TaxRuleSnapshot, error) {
	return s.rules, nil
}

type stubRefs struct {
	guid int
	ref  string
}

func (s *stubRefs) GUID() (int, error) {
	if s.guid == 0 {
		return 654321, nil
	}
	return s.guid, nil
}

func (s *stubRefs) PaymentReference() (string, error) {
	if s.ref == "" {
		return "PAY-TEST", nil
	}
	return s.ref, nil
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal fixture %q: %v", value, err)
	}
	return d
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "adjustments-test"})
}

func billableLicense() *models.GlobalLicenseRow {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.GlobalLicenseRow{
		GlobalLicense: models.GlobalLicense{
			ID:                 uuid.New(),
			GUID:               111111,
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
		TotalSeatsPurchased: 25,
	}
}

func newTestService(t *testing.T, repo *stubAdjustmentsRepo, reader *stubLicenseReader, source *stubRateSource) Service {
	t.Helper()
	svc, err := NewService(repo, reader, source, &stubRefs{}, nil, testLogger(), "USD")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateAdjustment(t *testing.T) {
	license := billableLicense()
	repo := &stubAdjustmentsRepo{}
	reader := &stubLicenseReader{
		row: license,
		tenant: &models.Tenant{
			ID:                  license.TenantID,
			Jurisdiction:        "CM",
			BillingCurrencyCode: "XAF",
		},
	}
	source := &stubRateSource{
		rate: &rates.Snapshot{FromCode: "USD", ToCode: "XAF", Rate: dec(t, "655.957000"), AsOf: time.Now()},
		rules: []models.TaxRuleSnapshot{
			{Name: "VAT", Type: enums.TaxRuleTypeVAT, Rate: dec(t, "0.1925")},
		},
	}
	svc := newTestService(t, repo, reader, source)

	when := license.CurrentPeriodStart.AddDate(0, 0, 14)
	adj, err := svc.Create(context.Background(), CreateInput{
		LicenseID:           license.ID,
		EmployeesAddedCount: 10,
		MonthsRemaining:     dec(t, "2.5"),
		PricePerEmployeeUSD: dec(t, "3.00"),
		AdjustmentDate:      &when,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if adj.SubtotalUSD.StringFixed(2) != "75.00" {
		t.Fatalf("subtotal = %s, want 75.00", adj.SubtotalUSD.StringFixed(2))
	}
	if adj.TaxAmountUSD.StringFixed(2) != "14.44" {
		t.Fatalf("tax = %s, want 14.44", adj.TaxAmountUSD.StringFixed(2))
	}
	if adj.TotalAmountUSD.StringFixed(2) != "89.44" {
		t.Fatalf("total = %s, want 89.44", adj.TotalAmountUSD.StringFixed(2))
	}
	if adj.TotalAmountLocal.StringFixed(2) != "58668.79" {
		t.Fatalf("total local = %s, want 58668.79", adj.TotalAmountLocal.StringFixed(2))
	}
	if adj.PaymentStatus != enums.AdjustmentPaymentStatusPending {
		t.Fatalf("status = %s, want PENDING", adj.PaymentStatus)
	}
	if adj.GUID != 654321 {
		t.Fatalf("guid = %d, want generated 654321", adj.GUID)
	}

	snapshot, err := models.UnmarshalTaxSnapshots(adj.TaxRulesApplied)
	if err != nil || len(snapshot) != 1 || snapshot[0].Name != "VAT" {
		t.Fatalf("tax snapshot not embedded: %v %+v", err, snapshot)
	}
}

func TestCreateAdjustmentTaxExemptTenant(t *testing.T) {
	license := billableLicense()
	repo := &stubAdjustmentsRepo{}
	reader := &stubLicenseReader{
		row: license,
		tenant: &models.Tenant{
			ID:                  license.TenantID,
			Jurisdiction:        "CM",
			BillingCurrencyCode: "USD",
			TaxExempt:           true,
		},
	}
	source := &stubRateSource{
		rate: &rates.Snapshot{FromCode: "USD", ToCode: "USD", Rate: decimal.NewFromInt(1), AsOf: time.Now()},
		rules: []models.TaxRuleSnapshot{
			{Name: "VAT", Type: enums.TaxRuleTypeVAT, Rate: dec(t, "0.1925")},
		},
	}
	svc := newTestService(t, repo, reader, source)

	when := license.CurrentPeriodStart.AddDate(0, 1, 0)
	adj, err := svc.Create(context.Background(), CreateInput{
		LicenseID:           license.ID,
		EmployeesAddedCount: 4,
		MonthsRemaining:     dec(t, "2"),
		PricePerEmployeeUSD: dec(t, "5.00"),
		AdjustmentDate:      &when,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !adj.TaxAmountUSD.IsZero() {
		t.Fatalf("exempt tenant taxed: %s", adj.TaxAmountUSD)
	}
	if adj.TotalAmountUSD.StringFixed(2) != "40.00" {
		t.Fatalf("total = %s, want 40.00", adj.TotalAmountUSD.StringFixed(2))
	}
}

func TestCreateAdjustmentMissingTaxRules(t *testing.T) {
	license := billableLicense()
	reader := &stubLicenseReader{
		row: license,
		tenant: &models.Tenant{
			ID:                  license.TenantID,
			Jurisdiction:        "CM",
			BillingCurrencyCode: "XAF",
		},
	}
	source := &stubRateSource{
		rate: &rates.Snapshot{FromCode: "USD", ToCode: "XAF", Rate: dec(t, "655.957000"), AsOf: time.Now()},
	}
	svc := newTestService(t, &stubAdjustmentsRepo{}, reader, source)

	when := license.CurrentPeriodStart.AddDate(0, 1, 0)
	_, err := svc.Create(context.Background(), CreateInput{
		LicenseID:           license.ID,
		EmployeesAddedCount: 1,
		MonthsRemaining:     dec(t, "1"),
		PricePerEmployeeUSD: dec(t, "3.00"),
		AdjustmentDate:      &when,
	})
	if pkgerrors.KindOf(err) != pkgerrors.KindTaxRuleInvalid {
		t.Fatalf("expected TAX_RULE_INVALID kind, got %v", err)
	}
}

func TestCreateAdjustmentOutsidePeriod(t *testing.T) {
	license := billableLicense()
	reader := &stubLicenseReader{row: license, tenant: &models.Tenant{ID: license.TenantID}}
	svc := newTestService(t, &stubAdjustmentsRepo{}, reader, &stubRateSource{})

	when := license.CurrentPeriodEnd.AddDate(0, 1, 0)
	_, err := svc.Create(context.Background(), CreateInput{
		LicenseID:           license.ID,
		EmployeesAddedCount: 1,
		MonthsRemaining:     dec(t, "1"),
		PricePerEmployeeUSD: dec(t, "3.00"),
		AdjustmentDate:      &when,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateAdjustmentDuplicateGUID(t *testing.T) {
	license := billableLicense()
	repo := &stubAdjustmentsRepo{createErr: gorm.ErrDuplicatedKey}
	reader := &stubLicenseReader{
		row: license,
		tenant: &models.Tenant{
			ID:                  license.TenantID,
			Jurisdiction:        "CM",
			BillingCurrencyCode: "USD",
			TaxExempt:           true,
		},
	}
	source := &stubRateSource{
		rate: &rates.Snapshot{FromCode: "USD", ToCode: "USD", Rate: decimal.NewFromInt(1), AsOf: time.Now()},
	}
	svc := newTestService(t, repo, reader, source)

	when := license.CurrentPeriodStart.AddDate(0, 1, 0)
	_, err := svc.Create(context.Background(), CreateInput{
		LicenseID:           license.ID,
		EmployeesAddedCount: 1,
		MonthsRemaining:     dec(t, "1"),
		PricePerEmployeeUSD: dec(t, "3.00"),
		AdjustmentDate:      &when,
	})
	if err == nil {
		t.Fatal("expected error from duplicate insert")
	}
}

func TestMarkInvoiceSent(t *testing.T) {
	adjID := uuid.New()
	adjDate := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo := &stubAdjustmentsRepo{
		byID: map[uuid.UUID]*models.LicenseAdjustment{
			adjID: {
				ID:             adjID,
				PaymentStatus:  enums.AdjustmentPaymentStatusPending,
				AdjustmentDate: adjDate,
			},
		},
		casRows: 1,
	}
	svc := newTestService(t, repo, &stubLicenseReader{}, &stubRateSource{})

	updated, err := svc.MarkInvoiceSent(context.Background(), adjID, adjDate.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("mark invoiced: %v", err)
	}
	if updated.PaymentStatus != enums.AdjustmentPaymentStatusInvoiced {
		t.Fatalf("status = %s, want INVOICED", updated.PaymentStatus)
	}
	if updated.InvoiceSentAt == nil {
		t.Fatal("invoice_sent_at not stamped")
	}
}

func TestMarkInvoiceSentBeforeAdjustmentDate(t *testing.T) {
	adjID := uuid.New()
	adjDate := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo := &stubAdjustmentsRepo{
		byID: map[uuid.UUID]*models.LicenseAdjustment{
			adjID: {ID: adjID, PaymentStatus: enums.AdjustmentPaymentStatusPending, AdjustmentDate: adjDate},
		},
	}
	svc := newTestService(t, repo, &stubLicenseReader{}, &stubRateSource{})

	_, err := svc.MarkInvoiceSent(context.Background(), adjID, adjDate.AddDate(0, 0, -1))
	if pkgerrors.KindOf(err) != pkgerrors.KindDateSequenceInvalid {
		t.Fatalf("expected DATE_SEQUENCE_INVALID kind, got %v", err)
	}
}

func TestMarkInvoiceSentLosesRace(t *testing.T) {
	adjID := uuid.New()
	repo := &stubAdjustmentsRepo{
		byID: map[uuid.UUID]*models.LicenseAdjustment{
			adjID: {
				ID:             adjID,
				PaymentStatus:  enums.AdjustmentPaymentStatusPending,
				AdjustmentDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		casRows: 0,
	}
	svc := newTestService(t, repo, &stubLicenseReader{}, &stubRateSource{})

	_, err := svc.MarkInvoiceSent(context.Background(), adjID, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT for lost race, got %v", err)
	}
}

func TestMarkPaidRequiresInvoice(t *testing.T) {
	adjID := uuid.New()
	repo := &stubAdjustmentsRepo{
		byID: map[uuid.UUID]*models.LicenseAdjustment{
			adjID: {
				ID:             adjID,
				PaymentStatus:  enums.AdjustmentPaymentStatusPending,
				AdjustmentDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	svc := newTestService(t, repo, &stubLicenseReader{}, &stubRateSource{})

	err := svc.MarkPaid(context.Background(), adjID, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestMarkPaidBeforeInvoiceSent(t *testing.T) {
	adjID := uuid.New()
	invoiced := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	repo := &stubAdjustmentsRepo{
		byID: map[uuid.UUID]*models.LicenseAdjustment{
			adjID: {
				ID:             adjID,
				PaymentStatus:  enums.AdjustmentPaymentStatusInvoiced,
				AdjustmentDate: invoiced.AddDate(0, 0, -4),
				InvoiceSentAt:  &invoiced,
			},
		},
		casRows: 1,
	}
	svc := newTestService(t, repo, &stubLicenseReader{}, &stubRateSource{})

	err := svc.MarkPaid(context.Background(), adjID, invoiced.AddDate(0, 0, -1))
	if pkgerrors.KindOf(err) != pkgerrors.KindDateSequenceInvalid {
		t.Fatalf("expected DATE_SEQUENCE_INVALID kind, got %v", err)
	}
}
