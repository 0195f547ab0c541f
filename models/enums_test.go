package models

import "testing"

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in       string
		expected TransactionType
		wantErr  bool
	}{
		{"buy", TransactionTypeBuy, false},
		{"buying", TransactionTypeBuy, false},
		{" Buying ", TransactionTypeBuy, false},
		{"SELL", TransactionTypeSell, false},
		{"selling", TransactionTypeSell, false},
		{"", "", true},
		{"refund", "", true},
	}
	for _, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseTransactionType(%q) expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTransactionType(%q) error: %v", tc.in, err)
		}
		if got != tc.expected {
			t.Fatalf("ParseTransactionType(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestTransactionTypeAPINameRoundTrip(t *testing.T) {
	for _, name := range []string{"buying", "selling"} {
		parsed, err := ParseTransactionType(name)
		if err != nil {
			t.Fatalf("ParseTransactionType(%q) error: %v", name, err)
		}
		if parsed.APIName() != name {
			t.Fatalf("expected %q after round trip, got %q", name, parsed.APIName())
		}
	}
}
