package utils

import (
	"testing"
)

func TestCheckName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "valid name",
			input:     "Robot A",
			wantError: false,
		},
		{
			name:      "valid name with numbers",
			input:     "unit42",
			wantError: false,
		},
		{
			name:      "empty name",
			input:     "",
			wantError: true,
		},
		{
			name:      "whitespace only",
			input:     "   \t",
			wantError: true,
		},
		{
			name:      "single character",
			input:     "a",
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckName(tt.input)
			if tt.wantError {
				if err != EmptyNameError {
					t.Errorf("expected EmptyNameError, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
