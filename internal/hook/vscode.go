package hook

import (
	"time"

	"nvg/internal/direction"
)

// VSCode is a detect-only stub: it locates a VS Code process but has no
// IPC surface to query or drive split navigation, so CanMove always
// returns Unknown (spec.md §4.3.3).
func VSCode() Hook {
	return Hook{
		Name:       "vscode",
		Detect:     detectVSCode,
		CanMove:    func(int, direction.Direction, time.Duration) TriState { return Unknown },
		MoveFocus:  func(int, direction.Direction, time.Duration) {},
		MoveToEdge: func(int, direction.Direction, time.Duration) {},
	}
}

// detectVSCode matches an exact basename of "code" or "code-oss",
// rejecting substrings like "barcode", "encode" or "unicode" that
// merely contain "code".
func detectVSCode(pid int, comm, exe, argv0 string) int {
	name := basename(argv0)
	if name == "" {
		name = comm
	}
	if name == "code" || name == "code-oss" {
		return pid
	}
	return 0
}
