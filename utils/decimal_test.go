package utils

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalOrZero_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"Rs 20,000", "20000"},
		{"₹ -1,250.50", "-1250.5"},
		{"  12.5  ", "12.5"},
		{"", "0"},
		{"abc", "0"},
		{"1.2.3", "0"},
		{"1e3", "1000"},
		{"1.5E+2", "150"},
		{"Rs. 1200", "1200"},
		{"Rs.1,200.50", "1200.5"},
		{"$ 75", "75"},
		{"5-3", "0"},
		{"12abc", "0"},
		{"Rs.", "0"},
		{"..5", "0"},
		{"1e1000000000", "0"},
	}
	for _, tc := range cases {
		d := ParseDecimalOrZero(tc.in)
		if d.String() != tc.expected {
			t.Fatalf("ParseDecimalOrZero(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestFlexString_AcceptsNumbersAndStrings(t *testing.T) {
	var payload struct {
		A FlexString  `json:"a"`
		B FlexString  `json:"b"`
		C *FlexString `json:"c"`
		D *FlexString `json:"d"`
		E FlexString  `json:"e"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.75, "b": "1,000", "c": null, "e": "oops"}`), &payload); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if payload.A.Decimal().String() != "12.75" {
		t.Fatalf("expected a=12.75, got %s", payload.A.Decimal())
	}
	if payload.B.Decimal().String() != "1000" {
		t.Fatalf("expected b=1000, got %s", payload.B.Decimal())
	}
	if payload.C.DecimalPtr() != nil || payload.D.DecimalPtr() != nil {
		t.Fatalf("expected null/absent fields to stay nil")
	}
	var exp FlexString
	if err := json.Unmarshal([]byte(`1e3`), &exp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if exp.Decimal().String() != "1000" {
		t.Fatalf("expected 1e3 to read as 1000, got %s", exp.Decimal())
	}
	if !payload.E.Decimal().IsZero() {
		t.Fatalf("expected unparsable value to default to 0, got %s", payload.E.Decimal())
	}
}
