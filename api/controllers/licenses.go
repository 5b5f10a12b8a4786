package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/api/responses"
	"github.com/tallyworks/licensing-backend/api/validators"
	"github.com/tallyworks/licensing-backend/internal/licenses"
	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
	"github.com/tallyworks/licensing-backend/pkg/logger"
)

type licenseResponse struct {
	ID                  uuid.UUID           `json:"id"`
	GUID                int                 `json:"guid"`
	TenantID            uuid.UUID           `json:"tenant_id"`
	LicenseType         enums.LicenseType   `json:"license_type"`
	BillingCycleMonths  int                 `json:"billing_cycle_months"`
	BasePriceUSD        decimal.Decimal     `json:"base_price_usd"`
	MinimumSeats        int                 `json:"minimum_seats"`
	TotalSeatsPurchased int                 `json:"total_seats_purchased"`
	CurrentPeriodStart  time.Time           `json:"current_period_start"`
	CurrentPeriodEnd    time.Time           `json:"current_period_end"`
	NextRenewalDate     time.Time           `json:"next_renewal_date"`
	Status              enums.LicenseStatus `json:"status"`
	BillingStatus       string              `json:"billing_status"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

func licenseResponseFromRow(row *models.GlobalLicenseRow) licenseResponse {
	return licenseResponse{
		ID:                  row.ID,
		GUID:                row.GUID,
		TenantID:            row.TenantID,
		LicenseType:         row.LicenseType,
		BillingCycleMonths:  row.BillingCycleMonths,
		BasePriceUSD:        row.BasePriceUSD,
		MinimumSeats:        row.MinimumSeats,
		TotalSeatsPurchased: row.TotalSeatsPurchased,
		CurrentPeriodStart:  row.CurrentPeriodStart,
		CurrentPeriodEnd:    row.CurrentPeriodEnd,
		NextRenewalDate:     row.NextRenewalDate,
		Status:              row.Status,
		BillingStatus:       row.BillingStatus,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

// LicenseGet returns one license with its store-computed seat and billing columns.
func LicenseGet(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "licenseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, licenseResponseFromRow(row))
	}
}

// LicenseGetByGUID resolves a license by its 6-digit numeric GUID.
func LicenseGetByGUID(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(chi.URLParam(r, "guid"))
		guid, err := strconv.Atoi(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "guid must be numeric"))
			return
		}

		row, err := svc.GetByGUID(r.Context(), guid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, licenseResponseFromRow(row))
	}
}
