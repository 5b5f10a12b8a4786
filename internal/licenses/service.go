// Package licenses is the read surface over tenant subscriptions. The two
// store-computed columns (total_seats_purchased, billing_status) are derived
// asynchronously by the storage layer; callers must re-fetch the row after any
// write that could move them, via Refresh.
package licenses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
)

// Service defines license-level reads plus the billability gate.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.GlobalLicenseRow, error)
	GetByGUID(ctx context.Context, guid int) (*models.GlobalLicenseRow, error)
	Refresh(ctx context.Context, id uuid.UUID) (*models.GlobalLicenseRow, error)
	Tenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	EnsureBillable(license *models.GlobalLicenseRow) error
}

type service struct {
	repo Repository
}

// NewService builds a license read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("licenses repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.GlobalLicenseRow, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license id required")
	}
	row, err := s.repo.FindRow(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load license")
	}
	return row, nil
}

func (s *service) GetByGUID(ctx context.Context, guid int) (*models.GlobalLicenseRow, error) {
	row, err := s.repo.FindRowByGUID(ctx, guid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load license by guid")
	}
	return row, nil
}

// Refresh re-reads the full row so callers observe the latest store-computed
// columns after a write. It never blocks waiting for the derivation.
func (s *service) Refresh(ctx context.Context, id uuid.UUID) (*models.GlobalLicenseRow, error) {
	return s.Get(ctx, id)
}

func (s *service) Tenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	tenant, err := s.repo.FindTenant(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant")
	}
	return tenant, nil
}

// EnsureBillable verifies the license can accept new charges: status ACTIVE
// and internally consistent period bounds.
func (s *service) EnsureBillable(license *models.GlobalLicenseRow) error {
	if license == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "license required")
	}
	if license.Status != enums.LicenseStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("license is %s, only ACTIVE licenses can be billed", license.Status))
	}
	if !license.CurrentPeriodEnd.After(license.CurrentPeriodStart) {
		return pkgerrors.DateSequenceInvalid("current_period_end must be after current_period_start")
	}
	if license.NextRenewalDate.Before(license.CurrentPeriodEnd) {
		return pkgerrors.DateSequenceInvalid("next_renewal_date precedes current_period_end")
	}
	return nil
}
