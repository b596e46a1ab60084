package census

import (
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	c := New(WithKey("test"))

	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if c.tigerURL != DefaultTIGERBaseURL {
		t.Errorf("tigerURL = %q, want %q", c.tigerURL, DefaultTIGERBaseURL)
	}
	if c.timeout != defaultTimeout {
		t.Errorf("timeout = %v, want %v", c.timeout, defaultTimeout)
	}
	if c.cache != nil {
		t.Error("cache configured by default")
	}
	if c.metrics != nil {
		t.Error("metrics configured by default")
	}
}

func TestOptionTrimsTrailingSlash(t *testing.T) {
	c := New(WithKey("test"), WithBaseURL("http://example.test/data/"), WithTIGERBaseURL("http://example.test/tiger/"))

	if c.baseURL != "http://example.test/data" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.tigerURL != "http://example.test/tiger" {
		t.Errorf("tigerURL = %q", c.tigerURL)
	}
}

func TestWithTimeoutIgnoresZero(t *testing.T) {
	c := New(WithKey("test"), WithTimeout(0))
	if c.timeout != defaultTimeout {
		t.Errorf("timeout = %v, want default kept", c.timeout)
	}

	c = New(WithKey("test"), WithTimeout(5*time.Second))
	if c.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", c.timeout)
	}
}
