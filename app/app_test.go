package app

import (
	"testing"

	"bandarlab/config"
)

// Start needs live Postgres/Redis, so the wiring itself is covered by the
// construction path: accessors exist and stay nil until Start builds the
// backing stores.
func TestNewAppAccessors(t *testing.T) {
	a := New(config.LoadFromEnv())
	if a == nil {
		t.Fatal("expected app instance")
	}
	if a.Service() != nil {
		t.Error("service must be nil before Start")
	}
	if a.Scorer() != nil {
		t.Error("scorer must be nil before Start")
	}
}
