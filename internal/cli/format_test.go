package cli

import "testing"

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{536812, "R$ 5.368,12"},
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{100, "R$ 1,00"},
		{-1050, "-R$ 10,50"},
		{123456789, "R$ 1.234.567,89"},
	}
	for _, tt := range tests {
		if got := FormatBRL(tt.in); got != tt.want {
			t.Errorf("FormatBRL(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBRLShort(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{123456789, "R$ 1,2 mi"},
		{4500000, "R$ 45 mil"},
		{99999, "R$ 999,99"},
	}
	for _, tt := range tests {
		if got := FormatBRLShort(tt.in); got != tt.want {
			t.Errorf("FormatBRLShort(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.000"},
		{1234567, "1.234.567"},
		{-1234, "-1.234"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatRatio(t *testing.T) {
	if got := FormatRatio(0, 0, 0); got != Placeholder {
		t.Errorf("FormatRatio(0,0) = %q, want placeholder", got)
	}
	if got := FormatRatio(1, 3, 33.333); got != "1/3 (33%)" {
		t.Errorf("FormatRatio(1,3) = %q", got)
	}
	if got := FormatPct(16.6666); got != "16,7%" {
		t.Errorf("FormatPct = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Manutenção predial", 10); got != "Manutençã…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("curto", 10); got != "curto" {
		t.Errorf("Truncate short = %q", got)
	}
}
