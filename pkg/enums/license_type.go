package enums

import "fmt"

// LicenseType distinguishes subscription tiers.
type LicenseType string

const (
	LicenseTypeStandard   LicenseType = "STANDARD"
	LicenseTypePremium    LicenseType = "PREMIUM"
	LicenseTypeEnterprise LicenseType = "ENTERPRISE"
)

var validLicenseTypes = []LicenseType{
	LicenseTypeStandard,
	LicenseTypePremium,
	LicenseTypeEnterprise,
}

// String implements fmt.Stringer.
func (l LicenseType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LicenseType.
func (l LicenseType) IsValid() bool {
	for _, candidate := range validLicenseTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLicenseType converts raw input into a LicenseType.
func ParseLicenseType(value string) (LicenseType, error) {
	for _, candidate := range validLicenseTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid license type %q", value)
}
