package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/pkg/enums"
)

// TaxRuleSnapshot is the point-in-time copy of one tax rule embedded verbatim
// into the owning record, so historical invoices stay reproducible after the
// catalog changes.
type TaxRuleSnapshot struct {
	Name string            `json:"name"`
	Type enums.TaxRuleType `json:"type"`
	Rate decimal.Decimal   `json:"rate"`
}

// MarshalTaxSnapshots encodes the applied rule list for the jsonb column.
func MarshalTaxSnapshots(rules []TaxRuleSnapshot) (json.RawMessage, error) {
	if rules == nil {
		rules = []TaxRuleSnapshot{}
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("marshal tax snapshots: %w", err)
	}
	return raw, nil
}

// UnmarshalTaxSnapshots decodes the jsonb column back into the rule list.
func UnmarshalTaxSnapshots(raw json.RawMessage) ([]TaxRuleSnapshot, error) {
	if len(raw) == 0 {
		return []TaxRuleSnapshot{}, nil
	}
	var rules []TaxRuleSnapshot
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("unmarshal tax snapshots: %w", err)
	}
	return rules, nil
}
