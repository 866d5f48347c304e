package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1235, true},
		{"12.344", 1234, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{".5", 50, true},
		{"7", 700, true},
		{"", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
		{"12.3a", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseDecimalToCents(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseDecimalToCents(%q) expected error", tc.in)
		}
	}
}

func TestMoneyUnmarshalJSON(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{`1234`, 1234, true},
		{`0`, 0, true},
		{`"12.34"`, 1234, true},
		{`"12,34"`, 1234, true},
		{`"7"`, 700, true},
		{`"12.345"`, 1235, true},
		{`"-1"`, 0, false},
		{`"abc"`, 0, false},
		{`12.34`, 0, false},
		{`true`, 0, false},
	}
	for _, tc := range cases {
		var m Money
		err := json.Unmarshal([]byte(tc.in), &m)
		if tc.ok && (err != nil || m.Cents != tc.want) {
			t.Fatalf("unmarshal %s = %d, %v; want %d", tc.in, m.Cents, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("unmarshal %s expected error", tc.in)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	if s := (Money{Cents: 1234}).Format(); s != "12.34" {
		t.Fatalf("got %s", s)
	}
	if s := (Money{Cents: -5}).Format(); s != "-0.05" {
		t.Fatalf("got %s", s)
	}
	if u := (Money{Cents: 150}).Units(); u != 1.5 {
		t.Fatalf("got %v", u)
	}
}
