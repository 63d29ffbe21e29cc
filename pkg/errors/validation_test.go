package errors

import (
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "n1", false},
		{"valid with dash", "gene-42", false},
		{"valid with colon", "region:A", false},
		{"valid unicode", "Zelle-ä", false},

		{"empty", "", true},
		{"too long", strings.Repeat("x", 300), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"leading space", " n1", true},
		{"trailing space", "n1 ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID("node", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidID) {
				t.Errorf("ValidateID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidID)
			}
		})
	}
}

func TestValidateIDs(t *testing.T) {
	if err := ValidateIDs("region", []string{"A", "B"}); err != nil {
		t.Errorf("ValidateIDs() error = %v", err)
	}
	err := ValidateIDs("region", []string{"A", ""})
	if err == nil {
		t.Fatal("ValidateIDs() accepted an empty ID")
	}
	if !strings.Contains(err.Error(), "region ID cannot be empty") {
		t.Errorf("ValidateIDs() error = %v", err)
	}
}
