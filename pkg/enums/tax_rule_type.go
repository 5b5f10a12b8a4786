package enums

import "fmt"

// TaxRuleType classifies a jurisdictional tax rule.
type TaxRuleType string

const (
	TaxRuleTypeVAT         TaxRuleType = "VAT"
	TaxRuleTypeSales       TaxRuleType = "SALES"
	TaxRuleTypeLevy        TaxRuleType = "LEVY"
	TaxRuleTypeWithholding TaxRuleType = "WITHHOLDING"
)

var validTaxRuleTypes = []TaxRuleType{
	TaxRuleTypeVAT,
	TaxRuleTypeSales,
	TaxRuleTypeLevy,
	TaxRuleTypeWithholding,
}

// String implements fmt.Stringer.
func (t TaxRuleType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaxRuleType.
func (t TaxRuleType) IsValid() bool {
	for _, candidate := range validTaxRuleTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaxRuleType converts raw input into a TaxRuleType.
func ParseTaxRuleType(value string) (TaxRuleType, error) {
	for _, candidate := range validTaxRuleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tax rule type %q", value)
}
