package rule

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// RuleType is the canonical uppercase token of a rule kind, e.g. "IP-CIDR".
type RuleType string

const (
	RuleTypeDomain           RuleType = "DOMAIN"
	RuleTypeDomainSuffix     RuleType = "DOMAIN-SUFFIX"
	RuleTypeDomainKeyword    RuleType = "DOMAIN-KEYWORD"
	RuleTypeDomainWildcard   RuleType = "DOMAIN-WILDCARD"
	RuleTypeDomainRegex      RuleType = "DOMAIN-REGEX"
	RuleTypeGeosite          RuleType = "GEOSITE"
	RuleTypeIPCIDR           RuleType = "IP-CIDR"
	RuleTypeIPCIDR6          RuleType = "IP-CIDR6"
	RuleTypeIPSuffix         RuleType = "IP-SUFFIX"
	RuleTypeIPASN            RuleType = "IP-ASN"
	RuleTypeGeoIP            RuleType = "GEOIP"
	RuleTypeSrcGeoIP         RuleType = "SRC-GEOIP"
	RuleTypeSrcIPASN         RuleType = "SRC-IP-ASN"
	RuleTypeSrcIPCIDR        RuleType = "SRC-IP-CIDR"
	RuleTypeSrcIPSuffix      RuleType = "SRC-IP-SUFFIX"
	RuleTypeDstPort          RuleType = "DST-PORT"
	RuleTypeSrcPort          RuleType = "SRC-PORT"
	RuleTypeInPort           RuleType = "IN-PORT"
	RuleTypeInType           RuleType = "IN-TYPE"
	RuleTypeInUser           RuleType = "IN-USER"
	RuleTypeInName           RuleType = "IN-NAME"
	RuleTypeProcessPath      RuleType = "PROCESS-PATH"
	RuleTypeProcessPathRegex RuleType = "PROCESS-PATH-REGEX"
	RuleTypeProcessName      RuleType = "PROCESS-NAME"
	RuleTypeProcessNameRegex RuleType = "PROCESS-NAME-REGEX"
	RuleTypeUID              RuleType = "UID"
	RuleTypeNetwork          RuleType = "NETWORK"
	RuleTypeDSCP             RuleType = "DSCP"
	RuleTypeMatch            RuleType = "MATCH"
)

// ruleTypes lists every known rule type in declaration order. The order is
// the one downstream rule consumers document their vocabulary in; it is not
// a matching priority.
var ruleTypes = []RuleType{
	RuleTypeDomain,
	RuleTypeDomainSuffix,
	RuleTypeDomainKeyword,
	RuleTypeDomainWildcard,
	RuleTypeDomainRegex,
	RuleTypeGeosite,
	RuleTypeIPCIDR,
	RuleTypeIPCIDR6,
	RuleTypeIPSuffix,
	RuleTypeIPASN,
	RuleTypeGeoIP,
	RuleTypeSrcGeoIP,
	RuleTypeSrcIPASN,
	RuleTypeSrcIPCIDR,
	RuleTypeSrcIPSuffix,
	RuleTypeDstPort,
	RuleTypeSrcPort,
	RuleTypeInPort,
	RuleTypeInType,
	RuleTypeInUser,
	RuleTypeInName,
	RuleTypeProcessPath,
	RuleTypeProcessPathRegex,
	RuleTypeProcessName,
	RuleTypeProcessNameRegex,
	RuleTypeUID,
	RuleTypeNetwork,
	RuleTypeDSCP,
	RuleTypeMatch,
}

var ruleTypeSet = make(map[RuleType]struct{}, len(ruleTypes))

func init() {
	for _, rt := range ruleTypes {
		ruleTypeSet[rt] = struct{}{}
	}
}

// RuleTypes returns all known rule types in declaration order.
func RuleTypes() []RuleType {
	out := make([]RuleType, len(ruleTypes))
	copy(out, ruleTypes)
	return out
}

// ParseRuleType maps a canonical token to its rule type. Matching is
// case-sensitive and exact; an unknown token is an error, never a default.
func ParseRuleType(s string) (RuleType, error) {
	rt := RuleType(s)
	if _, ok := ruleTypeSet[rt]; !ok {
		return "", &UnknownRuleTypeError{Token: s}
	}
	return rt, nil
}

func (rt RuleType) Valid() bool {
	_, ok := ruleTypeSet[rt]
	return ok
}

func (rt RuleType) String() string {
	return string(rt)
}

// UnmarshalJSON rejects unknown tokens so that bad rule types fail at
// decode time, both on the HTTP surface and when loading the rules file.
func (rt *RuleType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRuleType(s)
	if err != nil {
		return err
	}
	*rt = parsed
	return nil
}

// Rule is a single classification entry consumed by a downstream routing
// engine. Two rules are equal iff both fields are equal; the value is never
// normalized.
type Rule struct {
	Type  RuleType `json:"rule_type" validate:"required"`
	Value string   `json:"value" validate:"required"`
}

func (r Rule) String() string {
	return fmt.Sprintf("%s,%s", r.Type, r.Value)
}

func (r Rule) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(r.Type)),
		slog.String("value", r.Value),
	)
}
