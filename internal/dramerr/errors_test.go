package dramerr

import (
	"errors"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("build_device", "density mismatch")

	if err.Code != CodeConfiguration {
		t.Errorf("expected CodeConfiguration, got %s", err.Code)
	}

	expected := "dram: build_device: density mismatch (configuration error)"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestBackpressureError(t *testing.T) {
	err := NewBackpressureError("send", "write buffer full")
	if err.Code != CodeBackpressure {
		t.Errorf("expected CodeBackpressure, got %s", err.Code)
	}
}

func TestIsCode(t *testing.T) {
	err := NewInvariantError("issue_command", 3, 7, fakeStringer("closed"), fakeStringer("RC"))
	if !IsCode(err, CodeInvariant) {
		t.Errorf("expected IsCode(CodeInvariant) to be true")
	}
	if IsCode(err, CodeConfiguration) {
		t.Errorf("expected IsCode(CodeConfiguration) to be false")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap("tick", CodeInvariant, cause)
	if wrapped.Unwrap() != cause {
		t.Errorf("expected Unwrap() to return the original cause")
	}
	if !errors.Is(wrapped, cause) {
		t.Errorf("expected errors.Is(wrapped, cause) to be true")
	}
}

type fakeStringer string

func (f fakeStringer) String() string { return string(f) }
