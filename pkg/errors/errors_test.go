package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "plain",
			err:  New(ErrCodeInvalidManifest, "pom.xml: no <project> root"),
			want: "INVALID_MANIFEST: pom.xml: no <project> root",
		},
		{
			name: "wrapped",
			err:  Wrap(ErrCodeTimeout, context.DeadlineExceeded, "probe %s", "os"),
			want: "TIMEOUT: probe os: context deadline exceeded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapUnwraps(t *testing.T) {
	err := Wrap(ErrCodeNetwork, context.Canceled, "fetch flask")
	if !errors.Is(err, context.Canceled) {
		t.Error("errors.Is should see the cause")
	}
	if errors.Unwrap(err) != context.Canceled {
		t.Errorf("Unwrap() = %v", errors.Unwrap(err))
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching", New(ErrCodeIdentity, "x"), ErrCodeIdentity, true},
		{"other code", New(ErrCodeIdentity, "x"), ErrCodeNetwork, false},
		{"outer of chain", Wrap(ErrCodeNetwork, New(ErrCodeTimeout, "probe"), "classify"), ErrCodeNetwork, true},
		{"inner of chain", Wrap(ErrCodeNetwork, New(ErrCodeTimeout, "probe"), "classify"), ErrCodeTimeout, true},
		{"behind fmt wrap", fmt.Errorf("a.py: %w", New(ErrCodeInvalidPath, "x")), ErrCodeInvalidPath, true},
		{"plain", errors.New("x"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(Wrap(ErrCodeNetwork, New(ErrCodeTimeout, "x"), "y")); got != ErrCodeNetwork {
		t.Errorf("GetCode(chain) = %q, want the outermost code", got)
	}
	if got := GetCode(errors.New("x")); got != "" {
		t.Errorf("GetCode(plain) = %q", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %q", got)
	}
}

func TestTally(t *testing.T) {
	err := multierr.Combine(
		New(ErrCodeInvalidManifest, "a"),
		New(ErrCodeTimeout, "b"),
		New(ErrCodeInvalidManifest, "c"),
		errors.New("d"),
	)
	want := map[Code]int{ErrCodeInvalidManifest: 2, ErrCodeTimeout: 1, ErrCodeInternal: 1}
	if diff := cmp.Diff(want, Tally(err)); diff != "" {
		t.Errorf("Tally mismatch (-want +got):\n%s", diff)
	}
	if got, want := Summary(err), "2 INVALID_MANIFEST, 1 INTERNAL_ERROR, 1 TIMEOUT"; got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
	if got := Summary(nil); got != "" {
		t.Errorf("Summary(nil) = %q", got)
	}
}
