// Package pathtree holds the pure path invariants of the virtual file tree:
// canonical path derivation, descendant tests, cycle and collision checks,
// and prefix rewriting for cascades. It performs no I/O; callers pass it a
// snapshot of a project's nodes.
package pathtree

import (
	"fmt"
	"strings"

	"remod3/internal/domain"
)

// Join derives the canonical path of a node named name under parentPath.
// A root-level node (empty parentPath) is addressed by its bare name.
func Join(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + "/" + name
}

// IsDescendant reports whether candidate equals ancestor or lies somewhere
// beneath it. The comparison is segment-boundary safe: "src2/x" is not a
// descendant of "src".
func IsDescendant(candidate, ancestor string) bool {
	return candidate == ancestor || strings.HasPrefix(candidate, ancestor+"/")
}

// Rebase rewrites the leading oldPrefix of s to newPrefix. The prefix must be
// anchored at the start of the string and end on a segment boundary; anything
// else is returned unchanged. Callers establish IsDescendant(s, oldPrefix)
// before rebasing, so a raw substring replace is never applied.
func Rebase(s, oldPrefix, newPrefix string) string {
	if s == oldPrefix {
		return newPrefix
	}
	if strings.HasPrefix(s, oldPrefix+"/") {
		return newPrefix + s[len(oldPrefix):]
	}
	return s
}

// ValidateMove checks that moving the node identified by nodeID (currently at
// nodePath, named name) under newParentPath neither creates a cycle nor
// collides with an existing path. occupied maps every current path of the
// project to the owning node id.
func ValidateMove(nodeID, nodePath, name, newParentPath string, occupied map[string]string) error {
	if IsDescendant(newParentPath, nodePath) {
		return fmt.Errorf("cannot move %q into its own subtree: %w", nodePath, domain.ErrCycle)
	}

	newPath := Join(newParentPath, name)
	if existingID, ok := occupied[newPath]; ok && existingID != nodeID {
		return domain.PathConflict(newPath, existingID)
	}

	return nil
}
