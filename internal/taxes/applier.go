// Package taxes applies jurisdictional tax rules to a USD subtotal and embeds
// the applied rule snapshot into the owning record.
package taxes

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
	pkgerrors "github.com/tallyworks/licensing-backend/pkg/errors"
	"github.com/tallyworks/licensing-backend/pkg/money"
)

// Result carries the tax outcome plus the verbatim snapshot for persistence.
type Result struct {
	TaxAmountUSD   decimal.Decimal
	TotalAmountUSD decimal.Decimal
	Snapshot       []models.TaxRuleSnapshot
}

// Apply computes tax = round2(sum of subtotal * rule.rate) and
// total = round2(subtotal + tax). Each rule rate must be a fraction in [0,1]
// with at most 4 decimal places. taxRequired forces a non-empty rule set.
func Apply(subtotalUSD decimal.Decimal, rules []models.TaxRuleSnapshot, taxRequired bool) (Result, error) {
	if subtotalUSD.IsNegative() {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative")
	}
	if len(rules) == 0 && taxRequired {
		return Result{}, pkgerrors.TaxRuleInvalid("jurisdiction requires tax but no rules apply")
	}

	for _, rule := range rules {
		if !money.ValidTaxRate(rule.Rate) {
			return Result{}, pkgerrors.TaxRuleInvalid(
				fmt.Sprintf("rule %q rate %s outside [0,1] with 4 decimal places", rule.Name, rule.Rate),
			)
		}
	}

	rawTax := lo.Reduce(rules, func(acc decimal.Decimal, rule models.TaxRuleSnapshot, _ int) decimal.Decimal {
		return acc.Add(subtotalUSD.Mul(rule.Rate))
	}, decimal.Zero)

	tax := money.Round2(rawTax)
	return Result{
		TaxAmountUSD:   tax,
		TotalAmountUSD: money.Round2(subtotalUSD.Add(tax)),
		Snapshot:       rules,
	}, nil
}
