package rule

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestRuleTypeTokensRoundTrip(t *testing.T) {
	for _, rt := range RuleTypes() {
		t.Run(string(rt), func(t *testing.T) {
			parsed, err := ParseRuleType(rt.String())
			if err != nil {
				t.Fatalf("ParseRuleType(%q) failed: %v", rt.String(), err)
			}
			if parsed != rt {
				t.Errorf("round-trip: got %v, want %v", parsed, rt)
			}
		})
	}
}

func TestRuleTypeTokensUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for _, rt := range RuleTypes() {
		token := rt.String()
		if _, dup := seen[token]; dup {
			t.Errorf("duplicate token %q", token)
		}
		seen[token] = struct{}{}

		if token != strings.ToUpper(token) {
			t.Errorf("token %q is not uppercase", token)
		}
	}
}

func TestParseRuleTypeUnknown(t *testing.T) {
	tests := []string{
		"",
		"BOGUS",
		"domain",        // wrong case
		"IP-CIDR ",      // trailing space
		"DOMAIN_SUFFIX", // wrong separator
		"DEST-PORT",     // close but not canonical
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseRuleType(input); err == nil {
				t.Fatalf("ParseRuleType(%q) should fail", input)
			}
		})
	}
}

func TestRuleTypeUnmarshalJSON(t *testing.T) {
	var r Rule
	if err := json.Unmarshal([]byte(`{"rule_type":"DOMAIN-SUFFIX","value":"example.com"}`), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Type != RuleTypeDomainSuffix || r.Value != "example.com" {
		t.Errorf("got %+v", r)
	}

	err := json.Unmarshal([]byte(`{"rule_type":"NOT-A-TYPE","value":"x"}`), &r)
	if err == nil {
		t.Fatal("unknown token should fail to decode")
	}
	var unknown *UnknownRuleTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("error should be UnknownRuleTypeError, got %T: %v", err, err)
	}
	if unknown.Token != "NOT-A-TYPE" {
		t.Errorf("Token = %q, want NOT-A-TYPE", unknown.Token)
	}
}

func TestRuleString(t *testing.T) {
	r := Rule{Type: RuleTypeIPCIDR, Value: "192.168.0.0/16"}
	if got := r.String(); got != "IP-CIDR,192.168.0.0/16" {
		t.Errorf("String() = %q", got)
	}
}

func TestRuleEquality(t *testing.T) {
	a := Rule{Type: RuleTypeDomain, Value: "example.com"}
	b := Rule{Type: RuleTypeDomain, Value: "example.com"}
	c := Rule{Type: RuleTypeDomain, Value: "Example.com"} // no normalization

	if a != b {
		t.Error("identical rules should compare equal")
	}
	if a == c {
		t.Error("values differing in case should not compare equal")
	}
}
