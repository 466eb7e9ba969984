package builtin

import (
	"slices"
	"testing"

	"github.com/gogpu/glyphraster"
)

func TestRegistered(t *testing.T) {
	names := glyphraster.AvailableBackends()
	for _, want := range []string{glyphraster.BackendOutline, glyphraster.BackendScaler} {
		if !slices.Contains(names, want) {
			t.Errorf("AvailableBackends() = %v, missing %q", names, want)
		}
	}
}

func TestDefaultBackend(t *testing.T) {
	b, err := glyphraster.DefaultBackend()
	if err != nil {
		t.Fatalf("DefaultBackend() error = %v", err)
	}
	defer b.Close()
	if b.Name() == "" {
		t.Error("DefaultBackend().Name() is empty")
	}
}
