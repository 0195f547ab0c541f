package models

import (
	"reflect"
	"testing"
)

func TestPartyHintMatchConditions(t *testing.T) {
	cases := []struct {
		hint PartyHint
		cond string
		args []interface{}
	}{
		{PartyHint{Name: "Rajesh Traders", Phone: "9876543210"}, "name = ? OR phone = ?", []interface{}{"Rajesh Traders", "9876543210"}},
		{PartyHint{Name: "Rajesh Traders"}, "name = ?", []interface{}{"Rajesh Traders"}},
		{PartyHint{Phone: "000"}, "phone = ?", []interface{}{"000"}},
	}
	for _, tc := range cases {
		cond, args := tc.hint.matchConditions()
		if cond != tc.cond {
			t.Fatalf("expected %q, got %q", tc.cond, cond)
		}
		if !reflect.DeepEqual(args, tc.args) {
			t.Fatalf("expected args %v, got %v", tc.args, args)
		}
	}
}

func TestPartyHintNormalization(t *testing.T) {
	h := PartyHint{Name: "  New Co ", Phone: " 000 "}.normalized()
	if h.Name != "New Co" || h.Phone != "000" {
		t.Fatalf("expected trimmed hint, got %+v", h)
	}
	if h.resolutionKey() != "new co|000" {
		t.Fatalf("unexpected resolution key %q", h.resolutionKey())
	}
	if !(PartyHint{}).empty() {
		t.Fatalf("blank hint should be empty")
	}
}

func TestPartyHintLockKeysSorted(t *testing.T) {
	keys := PartyHint{Name: "Zed", Phone: "123"}.lockKeys()
	expected := []string{"lock:party:name:zed", "lock:party:phone:123"}
	if !reflect.DeepEqual(keys, expected) {
		t.Fatalf("expected %v, got %v", expected, keys)
	}
	if len(PartyHint{Phone: "1"}.lockKeys()) != 1 {
		t.Fatalf("expected a single lock for a phone-only hint")
	}
}

func TestNewPartyViewCreatorFallback(t *testing.T) {
	v := NewPartyView(&Party{ID: "p-1", Name: "A", CreatedBy: "u-1"}, "")
	if v.CreatedBy != "system" {
		t.Fatalf("expected system, got %q", v.CreatedBy)
	}
	if !v.IsActive {
		t.Fatalf("a party without an explicit flag is active")
	}
	v = NewPartyView(&Party{ID: "p-1", Name: "A", CreatedBy: "u-1"}, "admin@example.com")
	if v.CreatedBy != "admin@example.com" || v.CreatorId != "u-1" {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestPartyHintResolutionKeyKeepsCase(t *testing.T) {
	a := PartyHint{Name: "Acme", Phone: "111"}.resolutionKey()
	b := PartyHint{Name: "ACME", Phone: "111"}.resolutionKey()
	if a == b {
		t.Fatalf("expected names differing in case to get different keys, both %q", a)
	}
}

func TestPartyHintMatches(t *testing.T) {
	party := &Party{Name: "Acme Corp", Phone: "222"}
	cases := []struct {
		hint PartyHint
		want bool
	}{
		{PartyHint{Name: "Acme Corp"}, true},
		{PartyHint{Phone: "222"}, true},
		{PartyHint{Name: "Other", Phone: "222"}, true},
		{PartyHint{Name: "Acme", Phone: "111"}, false},
		{PartyHint{Name: "acme corp"}, false},
		{PartyHint{}, false},
	}
	for _, tc := range cases {
		if got := tc.hint.matches(party); got != tc.want {
			t.Fatalf("matches(%+v) expected %v, got %v", tc.hint, tc.want, got)
		}
	}
}

func TestPartyIdentityChanged(t *testing.T) {
	party := &Party{Name: "Acme", Phone: "111"}
	cases := []struct {
		updates map[string]interface{}
		want    bool
	}{
		{map[string]interface{}{"name": "Acme Corp"}, true},
		{map[string]interface{}{"phone": "222"}, true},
		{map[string]interface{}{"name": "Acme", "phone": "111"}, false},
		{map[string]interface{}{"notes": "moved"}, false},
	}
	for _, tc := range cases {
		if got := partyIdentityChanged(party, tc.updates); got != tc.want {
			t.Fatalf("partyIdentityChanged(%v) expected %v, got %v", tc.updates, tc.want, got)
		}
	}
}
