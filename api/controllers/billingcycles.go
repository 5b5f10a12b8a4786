package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/api/responses"
	"github.com/tallyworks/licensing-backend/api/validators"
	"github.com/tallyworks/licensing-backend/internal/billingcycles"
	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	"github.com/tallyworks/licensing-backend/pkg/logger"
)

type cycleCreateRequest struct {
	PeriodStart    *time.Time `json:"period_start"`
	PeriodEnd      *time.Time `json:"period_end"`
	PaymentDueDate *time.Time `json:"payment_due_date"`
}

type cycleResponse struct {
	ID                   uuid.UUID           `json:"id"`
	GUID                 int                 `json:"guid"`
	LicenseID            uuid.UUID           `json:"license_id"`
	PeriodStart          time.Time           `json:"period_start"`
	PeriodEnd            time.Time           `json:"period_end"`
	BaseEmployeeCount    int                 `json:"base_employee_count"`
	FinalEmployeeCount   int                 `json:"final_employee_count"`
	BaseAmountUSD        decimal.Decimal     `json:"base_amount_usd"`
	AdjustmentsAmountUSD decimal.Decimal     `json:"adjustments_amount_usd"`
	SubtotalUSD          decimal.Decimal     `json:"subtotal_usd"`
	TaxAmountUSD         decimal.Decimal     `json:"tax_amount_usd"`
	TotalAmountUSD       decimal.Decimal     `json:"total_amount_usd"`
	BillingCurrencyCode  string              `json:"billing_currency_code"`
	ExchangeRateUsed     decimal.Decimal     `json:"exchange_rate_used"`
	SubtotalLocal        decimal.Decimal     `json:"subtotal_local"`
	TaxAmountLocal       decimal.Decimal     `json:"tax_amount_local"`
	TotalAmountLocal     decimal.Decimal     `json:"total_amount_local"`
	TaxRulesApplied      json.RawMessage     `json:"tax_rules_applied,omitempty"`
	BillingStatus        enums.BillingStatus `json:"billing_status"`
	PaymentDueDate       time.Time           `json:"payment_due_date"`
	InvoiceSentAt        *time.Time          `json:"invoice_sent_at,omitempty"`
	PaymentCompletedAt   *time.Time          `json:"payment_completed_at,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

func cycleResponseFromModel(m *models.BillingCycle) cycleResponse {
	return cycleResponse{
		ID:                   m.ID,
		GUID:                 m.GUID,
		LicenseID:            m.LicenseID,
		PeriodStart:          m.PeriodStart,
		PeriodEnd:            m.PeriodEnd,
		BaseEmployeeCount:    m.BaseEmployeeCount,
		FinalEmployeeCount:   m.FinalEmployeeCount,
		BaseAmountUSD:        m.BaseAmountUSD,
		AdjustmentsAmountUSD: m.AdjustmentsAmountUSD,
		SubtotalUSD:          m.SubtotalUSD,
		TaxAmountUSD:         m.TaxAmountUSD,
		TotalAmountUSD:       m.TotalAmountUSD,
		BillingCurrencyCode:  m.BillingCurrencyCode,
		ExchangeRateUsed:     m.ExchangeRateUsed,
		SubtotalLocal:        m.SubtotalLocal,
		TaxAmountLocal:       m.TaxAmountLocal,
		TotalAmountLocal:     m.TotalAmountLocal,
		TaxRulesApplied:      m.TaxRulesApplied,
		BillingStatus:        m.BillingStatus,
		PaymentDueDate:       m.PaymentDueDate,
		InvoiceSentAt:        m.InvoiceSentAt,
		PaymentCompletedAt:   m.PaymentCompletedAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// CycleCreate aggregates a billing period into one invoice.
func CycleCreate(svc billingcycles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		licenseID, err := validators.ParsePathUUID(r, "licenseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cycleCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), billingcycles.CreateInput{
			LicenseID:      licenseID,
			PeriodStart:    payload.PeriodStart,
			PeriodEnd:      payload.PeriodEnd,
			PaymentDueDate: payload.PaymentDueDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cycleResponseFromModel(created))
	}
}

// CycleList returns a cursor page of billing cycles for one license.
func CycleList(svc billingcycles.Service, logg *logger.Logger) http.HandlerFunc {
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

		out := listEnvelope[cycleResponse]{NextCursor: list.NextCursor, Items: make([]cycleResponse, 0, len(list.Items))}
		for i := range list.Items {
			out.Items = append(out.Items, cycleResponseFromModel(&list.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// CycleGet returns one billing cycle by id.
func CycleGet(svc billingcycles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "cycleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cycle, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cycleResponseFromModel(cycle))
	}
}

// CycleInvoice stamps invoice_sent_at and moves the cycle to INVOICED.
func CycleInvoice(svc billingcycles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "cycleId")
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

		cycle, err := svc.MarkInvoiceSent(r.Context(), id, at)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cycleResponseFromModel(cycle))
	}
}
