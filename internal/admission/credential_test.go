package admission

import (
	"errors"
	"testing"
)

func TestParseCredential(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "full payload", raw: "Jane Doe|acme/gala", want: "Jane Doe"},
		{name: "name only", raw: "Jane Doe", want: "Jane Doe"},
		{name: "surrounding whitespace", raw: "  Jane Doe \t|acme/gala", want: "Jane Doe"},
		{name: "first separator wins", raw: "Jane|Doe|acme/gala", want: "Jane"},
		{name: "suffix not validated", raw: "Jane Doe|garbage", want: "Jane Doe"},
		{name: "empty name", raw: "|acme/gala", wantErr: true},
		{name: "blank name", raw: "   |acme/gala", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCredential(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCredential) {
					t.Fatalf("expected ErrInvalidCredential, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatCredential(t *testing.T) {
	raw := FormatCredential("Jane Doe", "acme", "gala")
	if raw != "Jane Doe|acme/gala" {
		t.Fatalf("unexpected credential %q", raw)
	}

	name, err := ParseCredential(raw)
	if err != nil || name != "Jane Doe" {
		t.Errorf("formatted credential did not parse back: %q, %v", name, err)
	}
}
