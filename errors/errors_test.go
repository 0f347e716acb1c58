package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "phase and kind only",
			err:  &Error{Phase: PhaseCompile, Kind: KindUnsupported},
			want: "[compile] unsupported",
		},
		{
			name: "with detail",
			err:  Unsupported(PhaseCompile, "exception handling proposal"),
			want: "[compile] unsupported: exception handling proposal",
		},
		{
			name: "with path",
			err: New(PhaseCompile, KindOutOfBounds).
				Path("type section").
				Detail("type index 7 out of range").
				Build(),
			want: "[compile] out_of_bounds at type section: type index 7 out of range",
		},
		{
			name: "with cause",
			err:  Load("parse module", fmt.Errorf("boom")),
			want: "[load] invalid_data: parse module (caused by: boom)",
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

func TestErrorIs(t *testing.T) {
	err := NotValidated()
	if !stderrors.Is(err, &Error{Phase: PhaseValidate, Kind: KindNotValidated}) {
		t.Error("Is should match by phase and kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseCompile, Kind: KindNotValidated}) {
		t.Error("Is should not match a different phase")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(PhaseOptimize, KindInvalidData, cause, "pass failed")
	if !stderrors.Is(err, cause) {
		t.Error("Unwrap chain should reach the cause")
	}
}

func TestBuilderDetailFormatting(t *testing.T) {
	err := New(PhaseCompile, KindTypeMismatch).Detail("want %d slots, got %d", 2, 3).Build()
	if !strings.Contains(err.Error(), "want 2 slots, got 3") {
		t.Errorf("formatted detail missing: %s", err.Error())
	}
}

func TestConvenienceConstructors(t *testing.T) {
	if got := OutOfBounds(PhaseCompile, []string{"globals"}, 4, 2).Error(); !strings.Contains(got, "index 4 out of bounds (length 2)") {
		t.Errorf("OutOfBounds: %s", got)
	}
	if got := TypeMismatch(PhaseCompile, nil, "i32", "i64").Error(); !strings.Contains(got, "got i32, want i64") {
		t.Errorf("TypeMismatch: %s", got)
	}
	if got := NotFound(PhaseEmit, "function", "f3").Error(); !strings.Contains(got, `function "f3" not found`) {
		t.Errorf("NotFound: %s", got)
	}
}
