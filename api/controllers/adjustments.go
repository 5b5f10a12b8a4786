package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/api/responses"
	"github.com/tallyworks/licensing-backend/api/validators"
	"github.com/tallyworks/licensing-backend/internal/adjustments"
	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	"github.com/tallyworks/licensing-backend/pkg/logger"
	"github.com/tallyworks/licensing-backend/pkg/pagination"
)

type adjustmentCreateRequest struct {
	EmployeesAddedCount int             `json:"employees_added_count" validate:"required,min=1"`
	MonthsRemaining     decimal.Decimal `json:"months_remaining" validate:"required"`
	PricePerEmployeeUSD decimal.Decimal `json:"price_per_employee_usd" validate:"required"`
	AdjustmentDate      *time.Time      `json:"adjustment_date"`
}

type invoiceRequest struct {
	InvoiceSentAt *time.Time `json:"invoice_sent_at"`
}

type adjustmentResponse struct {
	ID                  uuid.UUID                     `json:"id"`
	GUID                int                           `json:"guid"`
	LicenseID           uuid.UUID                     `json:"license_id"`
	EmployeesAddedCount int                           `json:"employees_added_count"`
	MonthsRemaining     decimal.Decimal               `json:"months_remaining"`
	PricePerEmployeeUSD decimal.Decimal               `json:"price_per_employee_usd"`
	SubtotalUSD         decimal.Decimal               `json:"subtotal_usd"`
	TaxAmountUSD        decimal.Decimal               `json:"tax_amount_usd"`
	TotalAmountUSD      decimal.Decimal               `json:"total_amount_usd"`
	BillingCurrencyCode string                        `json:"billing_currency_code"`
	ExchangeRateUsed    decimal.Decimal               `json:"exchange_rate_used"`
	SubtotalLocal       decimal.Decimal               `json:"subtotal_local"`
	TaxAmountLocal      decimal.Decimal               `json:"tax_amount_local"`
	TotalAmountLocal    decimal.Decimal               `json:"total_amount_local"`
	TaxRulesApplied     json.RawMessage               `json:"tax_rules_applied,omitempty"`
	PaymentStatus       enums.AdjustmentPaymentStatus `json:"payment_status"`
	AdjustmentDate      time.Time                     `json:"adjustment_date"`
	InvoiceSentAt       *time.Time                    `json:"invoice_sent_at,omitempty"`
	PaymentCompletedAt  *time.Time                    `json:"payment_completed_at,omitempty"`
	CreatedAt           time.Time                     `json:"created_at"`
	UpdatedAt           time.Time                     `json:"updated_at"`
}

func adjustmentResponseFromModel(m *models.LicenseAdjustment) adjustmentResponse {
	return adjustmentResponse{
		ID:                  m.ID,
		GUID:                m.GUID,
		LicenseID:           m.LicenseID,
		EmployeesAddedCount: m.EmployeesAddedCount,
		MonthsRemaining:     m.MonthsRemaining,
		PricePerEmployeeUSD: m.PricePerEmployeeUSD,
		SubtotalUSD:         m.SubtotalUSD,
		TaxAmountUSD:        m.TaxAmountUSD,
		TotalAmountUSD:      m.TotalAmountUSD,
		BillingCurrencyCode: m.BillingCurrencyCode,
		ExchangeRateUsed:    m.ExchangeRateUsed,
		SubtotalLocal:       m.SubtotalLocal,
		TaxAmountLocal:      m.TaxAmountLocal,
		TotalAmountLocal:    m.TotalAmountLocal,
		TaxRulesApplied:     m.TaxRulesApplied,
		PaymentStatus:       m.PaymentStatus,
		AdjustmentDate:      m.AdjustmentDate,
		InvoiceSentAt:       m.InvoiceSentAt,
		PaymentCompletedAt:  m.PaymentCompletedAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

type listEnvelope[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func listParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}, nil
}

// AdjustmentCreate prorates, taxes, projects and persists a seat addition
// against an active license.
func AdjustmentCreate(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		licenseID, err := validators.ParsePathUUID(r, "licenseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustmentCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), adjustments.CreateInput{
			LicenseID:           licenseID,
			EmployeesAddedCount: payload.EmployeesAddedCount,
			MonthsRemaining:     payload.MonthsRemaining,
			PricePerEmployeeUSD: payload.PricePerEmployeeUSD,
			AdjustmentDate:      payload.AdjustmentDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, adjustmentResponseFromModel(created))
	}
}

// AdjustmentList returns a cursor page of adjustments for one license.
func AdjustmentList(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		licenseID, err := validators.ParsePathUUID(r, "licenseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), licenseID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := listEnvelope[adjustmentResponse]{NextCursor: list.NextCursor, Items: make([]adjustmentResponse, 0, len(list.Items))}
		for i := range list.Items {
			out.Items = append(out.Items, adjustmentResponseFromModel(&list.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// AdjustmentGet returns one adjustment by id.
func AdjustmentGet(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "adjustmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		adj, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, adjustmentResponseFromModel(adj))
	}
}

// AdjustmentInvoice stamps invoice_sent_at and moves the adjustment to INVOICED.
func AdjustmentInvoice(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "adjustmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload invoiceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		at := time.Now().UTC()
		if payload.InvoiceSentAt != nil {
			at = payload.InvoiceSentAt.UTC()
		}

		adj, err := svc.MarkInvoiceSent(r.Context(), id, at)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, adjustmentResponseFromModel(adj))
	}
}
