package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteSeedFile writes a TOML seed document holding the given path/value
// pairs into the target file, creating parent directories as needed.
func WriteSeedFile(t testing.TB, target string, entries map[string]string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", target, err)
	}

	var b strings.Builder
	for path, value := range entries {
		fmt.Fprintf(&b, "[[entry]]\npath = %q\nvalue = %q\n\n", path, value)
	}
	if err := os.WriteFile(target, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", target, err)
	}
}
