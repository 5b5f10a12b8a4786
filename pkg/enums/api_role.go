package enums

import "fmt"

// APIRole scopes what a billing API token is allowed to do.
type APIRole string

const (
	APIRoleAdmin    APIRole = "ADMIN"
	APIRoleBilling  APIRole = "BILLING"
	APIRoleReadOnly APIRole = "READ_ONLY"
)

var validAPIRoles = []APIRole{
	APIRoleAdmin,
	APIRoleBilling,
	APIRoleReadOnly,
}

// String implements fmt.Stringer.
func (r APIRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known APIRole.
func (r APIRole) IsValid() bool {
	for _, candidate := range validAPIRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAPIRole converts raw input into an APIRole.
func ParseAPIRole(value string) (APIRole, error) {
	for _, candidate := range validAPIRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid api role %q", value)
}
