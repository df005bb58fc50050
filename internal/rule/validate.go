package rule

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// domainPattern is a syntax sanity check, not full DNS-label validation:
// suffixes and keywords are not complete domains. Alphanumeric boundaries,
// alphanumeric/hyphen/underscore/dot interior, at least 3 characters.
var domainPattern = regexp2.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_.]+[a-zA-Z0-9]$`, regexp2.None)

// Grammar classes. Every other rule type is an opaque pass-through token
// understood only by the downstream rule consumer.
var (
	ipCIDRTypes = map[RuleType]struct{}{
		RuleTypeIPCIDR:    {},
		RuleTypeIPCIDR6:   {},
		RuleTypeSrcIPCIDR: {},
	}
	domainTypes = map[RuleType]struct{}{
		RuleTypeDomain:        {},
		RuleTypeDomainSuffix:  {},
		RuleTypeDomainKeyword: {},
	}
	portTypes = map[RuleType]struct{}{
		RuleTypeDstPort: {},
		RuleTypeSrcPort: {},
		RuleTypeInPort:  {},
	}
)

// Validate reports whether the rule is well-formed: the type must be a
// known one and the value must satisfy the grammar of its type's class.
// It has no side effects and never touches shared state.
func (r Rule) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &MissingFieldError{Field: jsonFieldName(verrs[0].Field())}
		}
		return err
	}
	if !r.Type.Valid() {
		return &UnknownRuleTypeError{Token: string(r.Type)}
	}

	switch {
	case isType(r.Type, ipCIDRTypes):
		if _, _, err := net.ParseCIDR(r.Value); err != nil {
			return &InvalidIPCIDRError{Value: r.Value}
		}
	case isType(r.Type, domainTypes):
		if !isValidDomain(r.Value) {
			return &InvalidDomainError{Value: r.Value}
		}
	case isType(r.Type, portTypes):
		if !isValidPort(r.Value) {
			return &InvalidPortError{Value: r.Value}
		}
	}
	return nil
}

func isType(rt RuleType, class map[RuleType]struct{}) bool {
	_, ok := class[rt]
	return ok
}

func isValidDomain(v string) bool {
	ok, err := domainPattern.MatchString(v)
	return err == nil && ok
}

// isValidPort accepts a single port or a "lo-hi" range with both bounds in
// [0, 65535]. The first bound is deliberately not required to be <= the
// second.
func isValidPort(v string) bool {
	if _, err := strconv.ParseUint(v, 10, 16); err == nil {
		return true
	}
	lo, hi, found := strings.Cut(v, "-")
	if !found {
		return false
	}
	if _, err := strconv.ParseUint(lo, 10, 16); err != nil {
		return false
	}
	if _, err := strconv.ParseUint(hi, 10, 16); err != nil {
		return false
	}
	return true
}

func jsonFieldName(field string) string {
	switch field {
	case "Type":
		return "rule_type"
	case "Value":
		return "value"
	default:
		return strings.ToLower(field)
	}
}
