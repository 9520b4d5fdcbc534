package pathtree

import (
	"errors"
	"testing"

	"remod3/internal/domain"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		name       string
		parentPath string
		nodeName   string
		want       string
	}{
		{name: "root level uses bare name", parentPath: "", nodeName: "main.py", want: "main.py"},
		{name: "nested one level", parentPath: "src", nodeName: "main.py", want: "src/main.py"},
		{name: "nested deep", parentPath: "src/app/util", nodeName: "x.py", want: "src/app/util/x.py"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Join(tt.parentPath, tt.nodeName); got != tt.want {
				t.Errorf("Join(%q, %q) = %q, want %q", tt.parentPath, tt.nodeName, got, tt.want)
			}
		})
	}
}

func TestIsDescendant(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		ancestor  string
		want      bool
	}{
		{name: "equal paths", candidate: "src", ancestor: "src", want: true},
		{name: "direct child", candidate: "src/main.py", ancestor: "src", want: true},
		{name: "deep descendant", candidate: "src/app/util/x.py", ancestor: "src", want: true},
		{name: "sibling sharing name prefix", candidate: "src2/x.py", ancestor: "src", want: false},
		{name: "unrelated", candidate: "docs/readme.md", ancestor: "src", want: false},
		{name: "ancestor below candidate", candidate: "src", ancestor: "src/app", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDescendant(tt.candidate, tt.ancestor); got != tt.want {
				t.Errorf("IsDescendant(%q, %q) = %v, want %v", tt.candidate, tt.ancestor, got, tt.want)
			}
		})
	}
}

func TestRebase(t *testing.T) {
	tests := []struct {
		name      string
		s         string
		oldPrefix string
		newPrefix string
		want      string
	}{
		{name: "exact match", s: "src", oldPrefix: "src", newPrefix: "lib", want: "lib"},
		{name: "child", s: "src/main.py", oldPrefix: "src", newPrefix: "lib", want: "lib/main.py"},
		{name: "deep descendant", s: "src/app/x.py", oldPrefix: "src", newPrefix: "b/src", want: "b/src/app/x.py"},
		{name: "prefix inside a longer segment is untouched", s: "src2/x.py", oldPrefix: "src", newPrefix: "lib", want: "src2/x.py"},
		{name: "unrelated path is untouched", s: "docs/readme.md", oldPrefix: "src", newPrefix: "lib", want: "docs/readme.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rebase(tt.s, tt.oldPrefix, tt.newPrefix); got != tt.want {
				t.Errorf("Rebase(%q, %q, %q) = %q, want %q", tt.s, tt.oldPrefix, tt.newPrefix, got, tt.want)
			}
		})
	}
}

func TestValidateMove(t *testing.T) {
	occupied := map[string]string{
		"a":         "id-a",
		"a/x.py":    "id-ax",
		"a/child":   "id-ac",
		"b":         "id-b",
		"b/a":       "id-ba",
		"docs":      "id-docs",
		"docs/a.md": "id-docsa",
	}

	t.Run("valid move", func(t *testing.T) {
		if err := ValidateMove("id-docs", "docs", "docs", "a", occupied); err != nil {
			t.Errorf("ValidateMove returned %v, want nil", err)
		}
	})

	t.Run("move into own subtree is a cycle", func(t *testing.T) {
		err := ValidateMove("id-a", "a", "a", "a/child", occupied)
		if !errors.Is(err, domain.ErrCycle) {
			t.Errorf("ValidateMove returned %v, want ErrCycle", err)
		}
	})

	t.Run("move onto itself is a cycle", func(t *testing.T) {
		err := ValidateMove("id-a", "a", "a", "a", occupied)
		if !errors.Is(err, domain.ErrCycle) {
			t.Errorf("ValidateMove returned %v, want ErrCycle", err)
		}
	})

	t.Run("destination already occupied", func(t *testing.T) {
		err := ValidateMove("id-a", "a", "a", "b", occupied)
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("ValidateMove returned %v, want ErrConflict", err)
		}
		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("ValidateMove returned %T, want *domain.ConflictError", err)
		}
		if conflict.ResourceID != "id-ba" {
			t.Errorf("conflict.ResourceID = %q, want %q", conflict.ResourceID, "id-ba")
		}
	})

	t.Run("node keeping its own path is not a conflict", func(t *testing.T) {
		// Moving to the parent it already lives under resolves to its current
		// path, which the occupied map attributes to the node itself.
		if err := ValidateMove("id-ax", "a/x.py", "x.py", "a", occupied); err != nil {
			t.Errorf("ValidateMove returned %v, want nil", err)
		}
	})
}
