package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/api/responses"
	"github.com/tallyworks/licensing-backend/api/validators"
	"github.com/tallyworks/licensing-backend/internal/payments"
	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
	"github.com/tallyworks/licensing-backend/pkg/logger"
)

type paymentCreateRequest struct {
	PaymentMethod string     `json:"payment_method" validate:"required"`
	InitiatedAt   *time.Time `json:"initiated_at"`
}

type paymentCompleteRequest struct {
	CompletedAt *time.Time `json:"completed_at"`
}

type paymentFailRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type paymentResponse struct {
	ID               uuid.UUID                      `json:"id"`
	GUID             int                            `json:"guid"`
	BillingCycleID   *uuid.UUID                     `json:"billing_cycle_id,omitempty"`
	AdjustmentID     *uuid.UUID                     `json:"adjustment_id,omitempty"`
	AmountUSD        decimal.Decimal                `json:"amount_usd"`
	AmountLocal      decimal.Decimal                `json:"amount_local"`
	CurrencyCode     string                         `json:"currency_code"`
	ExchangeRateUsed decimal.Decimal                `json:"exchange_rate_used"`
	PaymentMethod    enums.PaymentMethod            `json:"payment_method"`
	PaymentReference string                         `json:"payment_reference"`
	Status           enums.PaymentTransactionStatus `json:"status"`
	InitiatedAt      time.Time                      `json:"initiated_at"`
	CompletedAt      *time.Time                     `json:"completed_at,omitempty"`
	FailedAt         *time.Time                     `json:"failed_at,omitempty"`
	FailureReason    *string                        `json:"failure_reason,omitempty"`
	CreatedAt        time.Time                      `json:"created_at"`
	UpdatedAt        time.Time                      `json:"updated_at"`
}

func paymentResponseFromModel(m *models.PaymentTransaction) paymentResponse {
	return paymentResponse{
		ID:               m.ID,
		GUID:             m.GUID,
		BillingCycleID:   m.BillingCycleID,
		AdjustmentID:     m.AdjustmentID,
		AmountUSD:        m.AmountUSD,
		AmountLocal:      m.AmountLocal,
		CurrencyCode:     m.CurrencyCode,
		ExchangeRateUsed: m.ExchangeRateUsed,
		PaymentMethod:    m.PaymentMethod,
		PaymentReference: m.PaymentReference,
		Status:           m.Status,
		InitiatedAt:      m.InitiatedAt,
		CompletedAt:      m.CompletedAt,
		FailedAt:         m.FailedAt,
		FailureReason:    m.FailureReason,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func decodePaymentCreate(r *http.Request) (enums.PaymentMethod, *time.Time, error) {
	var payload paymentCreateRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return "", nil, err
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.PaymentMethod))
	if err != nil {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	return method, payload.InitiatedAt, nil
}

// PaymentCreateForCycle opens a PENDING transaction against an invoiced cycle.
func PaymentCreateForCycle(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cycleID, err := validators.ParsePathUUID(r, "cycleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, initiatedAt, err := decodePaymentCreate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), payments.CreateInput{
			BillingCycleID: &cycleID,
			PaymentMethod:  method,
			InitiatedAt:    initiatedAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, paymentResponseFromModel(created))
	}
}

// PaymentCreateForAdjustment opens a PENDING transaction against an invoiced adjustment.
func PaymentCreateForAdjustment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adjustmentID, err := validators.ParsePathUUID(r, "adjustmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, initiatedAt, err := decodePaymentCreate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), payments.CreateInput{
			AdjustmentID:  &adjustmentID,
			PaymentMethod: method,
			InitiatedAt:   initiatedAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, paymentResponseFromModel(created))
	}
}

// PaymentGet returns one transaction by id.
func PaymentGet(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentResponseFromModel(txn))
	}
}

// PaymentListForCycle returns a cursor page of transactions against one cycle.
func PaymentListForCycle(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cycleID, err := validators.ParsePathUUID(r, "cycleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForCycle(r.Context(), cycleID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePaymentList(w, list)
	}
}

// PaymentListForAdjustment returns a cursor page of transactions against one adjustment.
func PaymentListForAdjustment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adjustmentID, err := validators.ParsePathUUID(r, "adjustmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForAdjustment(r.Context(), adjustmentID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePaymentList(w, list)
	}
}

func writePaymentList(w http.ResponseWriter, list *payments.List) {
	out := listEnvelope[paymentResponse]{NextCursor: list.NextCursor, Items: make([]paymentResponse, 0, len(list.Items))}
	for i := range list.Items {
		out.Items = append(out.Items, paymentResponseFromModel(&list.Items[i]))
	}
	responses.WriteSuccess(w, out)
}

// PaymentProcess moves a transaction to PROCESSING.
func PaymentProcess(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentTransition(logg, func(r *http.Request, id uuid.UUID) (*models.PaymentTransaction, error) {
		return svc.Process(r.Context(), id)
	})
}

// PaymentComplete settles a PROCESSING transaction and marks its invoice paid.
func PaymentComplete(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentCompleteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		at := time.Now().UTC()
		if payload.CompletedAt != nil {
			at = payload.CompletedAt.UTC()
		}

		txn, err := svc.Complete(r.Context(), id, at)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentResponseFromModel(txn))
	}
}

// PaymentFail finalizes a transaction as FAILED with a mandatory reason.
func PaymentFail(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentFailRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Fail(r.Context(), id, strings.TrimSpace(payload.Reason))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentResponseFromModel(txn))
	}
}

// PaymentCancel abandons a transaction that has not settled.
func PaymentCancel(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentTransition(logg, func(r *http.Request, id uuid.UUID) (*models.PaymentTransaction, error) {
		return svc.Cancel(r.Context(), id)
	})
}

// PaymentRefund moves a COMPLETED transaction to REFUNDED.
func PaymentRefund(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentTransition(logg, func(r *http.Request, id uuid.UUID) (*models.PaymentTransaction, error) {
		return svc.Refund(r.Context(), id)
	})
}

func paymentTransition(logg *logger.Logger, move func(*http.Request, uuid.UUID) (*models.PaymentTransaction, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := move(r, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentResponseFromModel(txn))
	}
}
