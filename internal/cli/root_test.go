package cli

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewClientDefaults(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})

	c := newClient(Config{}, "", logger)
	if c == nil {
		t.Fatal("newClient returned nil")
	}
	b := c.Budget()
	if b.Remaining <= 0 {
		t.Errorf("budget = %+v, want an optimistic initial budget", b)
	}
}

func TestNewClientTokenPrecedence(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})

	// The flag token wins over the config token; both paths must build.
	if c := newClient(Config{Token: "from-config"}, "from-flag", logger); c == nil {
		t.Fatal("newClient returned nil")
	}
	if c := newClient(Config{Token: "from-config"}, "", logger); c == nil {
		t.Fatal("newClient returned nil")
	}
}
