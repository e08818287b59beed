package domain

import "testing"

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		amount float64
		want   string
	}{
		{"round figure", "Kes.", 100, "Kes. 100.00"},
		{"two decimals", "Kes.", 92.5, "Kes. 92.50"},
		{"rounds", "Kes.", 10.006, "Kes. 10.01"},
		{"zero", "Kes.", 0, "Kes. 0.00"},
		{"empty prefix falls back", "", 42, "Kes. 42.00"},
		{"other currency", "USD", 42, "USD 42.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMoney(tt.prefix, tt.amount); got != tt.want {
				t.Errorf("FormatMoney(%q, %g) = %q, want %q", tt.prefix, tt.amount, got, tt.want)
			}
		})
	}
}

func TestSessionValid(t *testing.T) {
	var nilSess *Session
	if nilSess.Valid() {
		t.Error("nil session must be invalid")
	}
	if (&Session{Token: "t"}).Valid() {
		t.Error("token without user must be invalid")
	}
	if (&Session{User: User{ID: "u"}}).Valid() {
		t.Error("user without token must be invalid")
	}
	if !(&Session{Token: "t", User: User{ID: "u"}}).Valid() {
		t.Error("complete session must be valid")
	}
}

func TestEnergyTypeValid(t *testing.T) {
	for _, et := range EnergyTypes {
		if !et.Valid() {
			t.Errorf("%s should be valid", et)
		}
	}
	if EnergyType("Plutonium").Valid() {
		t.Error("unknown energy type should be invalid")
	}
	if EnergyType("").Valid() {
		t.Error("empty energy type should be invalid")
	}
}
