// Package rates exposes point-in-time exchange-rate and tax-rule snapshots.
// Snapshots are immutable once embedded into a billing record, so a short
// read-through cache in front of the catalog tables is safe to share across
// concurrent requests.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
	"github.com/tallyworks/licensing-backend/pkg/logger"
	"github.com/tallyworks/licensing-backend/pkg/money"
	"github.com/tallyworks/licensing-backend/pkg/redis"
)

// Snapshot is the captured rate for one currency pair.
type Snapshot struct {
	FromCode string          `json:"from_code"`
	ToCode   string          `json:"to_code"`
	Rate     decimal.Decimal `json:"rate"`
	AsOf     time.Time       `json:"as_of"`
}

// Service is the read-only reference-data surface the billing writers consume.
type Service interface {
	Rate(ctx context.Context, fromCode, toCode string) (*Snapshot, error)
	TaxRules(ctx context.Context, jurisdiction, appliesTo string) ([]models.TaxRuleSnapshot, error)
}

type service struct {
	repo  Repository
	cache redis.SnapshotCache
	logg  *logger.Logger
	ttl   time.Duration
	now   func() time.Time
}

// NewService builds the rates service. cache may be nil, in which case every
// lookup hits the catalog tables.
func NewService(repo Repository, cache redis.SnapshotCache, logg *logger.Logger, ttl time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rates repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &service{
		repo:  repo,
		cache: cache,
		logg:  logg,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

func (s *service) Rate(ctx context.Context, fromCode, toCode string) (*Snapshot, error) {
	if !money.ValidCurrencyCode(fromCode) || !money.ValidCurrencyCode(toCode) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("currency pair %s/%s is not a valid ISO-4217 pair", fromCode, toCode))
	}

	// Identity pairs never hit the catalog.
	if fromCode == toCode {
		return &Snapshot{FromCode: fromCode, ToCode: toCode, Rate: decimal.NewFromInt(1), AsOf: s.now()}, nil
	}

	if s.cache != nil {
		key := s.cache.RateKey("fx", fromCode, toCode)
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var snap Snapshot
			if err := json.Unmarshal([]byte(cached), &snap); err == nil {
				return &snap, nil
			}
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "discarding undecodable rate cache entry")
		} else if !errors.Is(err, redis.ErrCacheMiss) {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "rate cache read failed")
		}
	}

	row, err := s.repo.LatestRate(ctx, fromCode, toCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("no exchange rate for %s/%s", fromCode, toCode))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load exchange rate")
	}
	if !money.ValidRate(row.Rate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("catalog rate for %s/%s is not positive with 6 decimal places", fromCode, toCode))
	}

	snap := &Snapshot{FromCode: row.FromCode, ToCode: row.ToCode, Rate: row.Rate, AsOf: row.AsOf}
	s.cacheSet(ctx, s.rateKey(fromCode, toCode), snap)
	return snap, nil
}

func (s *service) TaxRules(ctx context.Context, jurisdiction, appliesTo string) ([]models.TaxRuleSnapshot, error) {
	if jurisdiction == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jurisdiction is required")
	}
	if appliesTo == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "applies_to is required")
	}

	if s.cache != nil {
		key := s.cache.RateKey("tax", jurisdiction, appliesTo)
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var rules []models.TaxRuleSnapshot
			if err := json.Unmarshal([]byte(cached), &rules); err == nil {
				return rules, nil
			}
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "discarding undecodable tax cache entry")
		} else if !errors.Is(err, redis.ErrCacheMiss) {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "tax cache read failed")
		}
	}

	rows, err := s.repo.ActiveTaxRules(ctx, jurisdiction, appliesTo, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tax rules")
	}

	rules := lo.Map(rows, func(row models.TaxRule, _ int) models.TaxRuleSnapshot {
		return models.TaxRuleSnapshot{Name: row.Name, Type: row.Type, Rate: row.Rate}
	})
	s.cacheSet(ctx, s.taxKey(jurisdiction, appliesTo), rules)
	return rules, nil
}

func (s *service) rateKey(fromCode, toCode string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.RateKey("fx", fromCode, toCode)
}

func (s *service) taxKey(jurisdiction, appliesTo string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.RateKey("tax", jurisdiction, appliesTo)
}

func (s *service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil || key == "" {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "snapshot cache write failed")
	}
}
