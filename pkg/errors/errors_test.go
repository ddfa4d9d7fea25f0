package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewPermanentError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantNil bool
	}{
		{
			name:    "nil error",
			err:     nil,
			wantNil: true,
		},
		{
			name:    "regular error",
			err:     errors.New("schema violation"),
			wantNil: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPermanentError(tt.err)
			if tt.wantNil {
				if got != nil {
					t.Errorf("NewPermanentError() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("NewPermanentError() = nil, want non-nil")
			}
			if !IsPermanent(got) {
				t.Error("NewPermanentError() should create a permanent error")
			}
			if got.Error() != tt.err.Error() {
				t.Errorf("Error() = %q, want %q", got.Error(), tt.err.Error())
			}
		})
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "regular error",
			err:  errors.New("transient"),
			want: false,
		},
		{
			name: "permanent error",
			err:  NewPermanentError(errors.New("undeclared option")),
			want: true,
		},
		{
			name: "wrapped permanent error",
			err:  fmt.Errorf("process event: %w", NewPermanentError(errors.New("bad payload"))),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent() = %v, want %v", got, tt.want)
			}
		})
	}
}
