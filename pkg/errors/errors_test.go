package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewAndWrap(t *testing.T) {
	err := New(ErrCodeRegionNotFound, "region %s", "R9")
	if got, want := err.Error(), "REGION_NOT_FOUND: region R9"; got != want {
		t.Errorf("Error() = %v, want %v", got, want)
	}

	cause := errors.New("disk full")
	wrapped := Wrap(ErrCodeTransaction, cause, "commit %s", "I1")
	if got, want := wrapped.Error(), "TRANSACTION_FAILED: commit I1: disk full"; got != want {
		t.Errorf("Error() = %v, want %v", got, want)
	}
	if errors.Unwrap(wrapped) != cause || !errors.Is(wrapped, cause) {
		t.Error("wrapped error does not expose its cause")
	}
}

func TestCodes(t *testing.T) {
	plain := errors.New("plain")
	nested := Wrap(ErrCodeTransaction, New(ErrCodeInvalidInput, "inner"), "outer")

	tests := []struct {
		name     string
		err      error
		wantCode Code
		wantMsg  string
	}{
		{"Coded", New(ErrCodeInvalidID, "bad id"), ErrCodeInvalidID, "bad id"},
		{"Nested", nested, ErrCodeTransaction, "outer"},
		{"FmtWrapped", fmt.Errorf("load: %w", New(ErrCodeFileNotFound, "x.toml")), ErrCodeFileNotFound, "x.toml"},
		{"Plain", plain, "", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.wantCode {
				t.Errorf("GetCode() = %v, want %v", got, tt.wantCode)
			}
			if got := Is(tt.err, tt.wantCode); got != (tt.wantCode != "") {
				t.Errorf("Is(%v) = %v", tt.wantCode, got)
			}
			if Is(tt.err, ErrCodeUnsupported) {
				t.Error("Is(UNSUPPORTED) = true")
			}
			if got := UserMessage(tt.err); got != tt.wantMsg {
				t.Errorf("UserMessage() = %v, want %v", got, tt.wantMsg)
			}
		})
	}

	if GetCode(nil) != "" || Is(nil, ErrCodeInvalidInput) {
		t.Error("nil error carries a code")
	}
}

func TestCancelled(t *testing.T) {
	err := Cancelled("merge")
	if !IsCancelled(err) {
		t.Error("IsCancelled(Cancelled()) = false, want true")
	}
	if got := UserMessage(err); got != "operation cancelled during merge" {
		t.Errorf("UserMessage() = %v", got)
	}
	if IsCancelled(New(ErrCodeInternal, "boom")) {
		t.Error("IsCancelled() = true for an internal error")
	}
}

func TestContractPanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(*Error)
		if !ok {
			t.Fatalf("recover() = %T, want *Error", r)
		}
		if err.Code != ErrCodeContractViolation {
			t.Errorf("Code = %v, want %v", err.Code, ErrCodeContractViolation)
		}
	}()
	Contract("region %s is a virtual subset", "R1")
}
