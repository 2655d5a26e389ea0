package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeNoBackground, "template has no background")
	want := "NO_BACKGROUND: template has no background"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorWithCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(ErrCodeRasterize, cause, "rasterize failed")

	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() = %q, should contain cause", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeMultiplePrimary, "two primary items")

	if !Is(err, ErrCodeMultiplePrimary) {
		t.Error("Is() should match the error's own code")
	}
	if Is(err, ErrCodeNoBackground) {
		t.Error("Is() should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeMultiplePrimary) {
		t.Error("Is() should not match a plain error")
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeLayerSlotMismatch, "missing image placeholder")
	outer := fmt.Errorf("render composition: %w", inner)

	if !Is(outer, ErrCodeLayerSlotMismatch) {
		t.Error("Is() should find the code through fmt.Errorf wrapping")
	}
	if GetCode(outer) != ErrCodeLayerSlotMismatch {
		t.Errorf("GetCode() = %q, want %q", GetCode(outer), ErrCodeLayerSlotMismatch)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeOutputDirInvalid, "not a directory: /nope")
	if got := UserMessage(err); got != "not a directory: /nope" {
		t.Errorf("UserMessage() = %q", got)
	}

	plain := stderrors.New("plain failure")
	if got := UserMessage(plain); got != "plain failure" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
