package rule

import (
	"errors"
	"fmt"
)

// Error messages are part of the wire contract: API clients receive them
// verbatim in the {"error": ...} body.
var (
	ErrDuplicateRule = errors.New("Rule already exists")
	ErrRuleNotFound  = errors.New("Rule not found")
)

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing required field: %s", e.Field)
}

type UnknownRuleTypeError struct {
	Token string
}

func (e *UnknownRuleTypeError) Error() string {
	return fmt.Sprintf("Unknown rule type: %s", e.Token)
}

type InvalidIPCIDRError struct {
	Value string
}

func (e *InvalidIPCIDRError) Error() string {
	return fmt.Sprintf("Invalid IP CIDR format: %s", e.Value)
}

type InvalidDomainError struct {
	Value string
}

func (e *InvalidDomainError) Error() string {
	return fmt.Sprintf("Invalid domain format: %s", e.Value)
}

type InvalidPortError struct {
	Value string
}

func (e *InvalidPortError) Error() string {
	return fmt.Sprintf("Invalid port number: %s", e.Value)
}

// IsValidationError reports whether err is a client-input error: the rule
// value failed the grammar of its declared type, or the type itself is
// unknown.
func IsValidationError(err error) bool {
	var (
		missingField *MissingFieldError
		unknownType  *UnknownRuleTypeError
		invalidCIDR  *InvalidIPCIDRError
		invalidDom   *InvalidDomainError
		invalidPort  *InvalidPortError
	)
	return errors.As(err, &missingField) ||
		errors.As(err, &unknownType) ||
		errors.As(err, &invalidCIDR) ||
		errors.As(err, &invalidDom) ||
		errors.As(err, &invalidPort)
}
