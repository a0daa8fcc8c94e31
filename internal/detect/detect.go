// Package detect implements the process-tree hook-detection engine:
// walk the descendants of the WM-focused process and apply every
// enabled hook's detect probe, yielding a depth-annotated list of
// matches (spec.md §4.2).
package detect

import (
	"nvg/internal/hook"
	"nvg/internal/procutil"
)

// MaxDepth bounds the descendant walk, guarding against a pathological
// or cyclic-looking process tree (spec.md §3's "both depth and total
// matches are bounded" invariant).
const MaxDepth = 32

// MaxDetected is DetectedList's fixed capacity; overflow truncates
// silently (spec.md §3).
const MaxDetected = 8

// Detected is one match: the hook that matched, the pid it matched at,
// and how many process-tree edges separate it from the walk's root.
type Detected struct {
	Hook  hook.Hook
	Pid   int
	Depth int
}

// All walks the descendants of root, applying every hook in hooks (in
// registration order) to each descendant, and returns matches
// shallowest-first, capped at MaxDetected. Depths are monotonically
// non-decreasing in the returned order, since the walk is
// breadth-first.
func All(root int, hooks []hook.Hook) []Detected {
	var out []Detected
	frontier := []int{root}
	depth := 0

	for len(frontier) > 0 && depth < MaxDepth && len(out) < MaxDetected {
		var next []int
		for _, pid := range frontier {
			for _, child := range procutil.ChildrenOf(pid) {
				next = append(next, child)
				if len(out) >= MaxDetected {
					continue
				}
				if m, ok := matchHooks(child, hooks); ok {
					out = append(out, Detected{Hook: m, Pid: child, Depth: depth + 1})
					if len(out) >= MaxDetected {
						break
					}
				}
			}
			if len(out) >= MaxDetected {
				break
			}
		}
		frontier = next
		depth++
	}

	return out
}

// matchHooks applies every hook's detect probe to pid in registration
// order, returning the first match. A process whose exe symlink is
// unreadable is not skipped outright — ReadExe already yields "" for
// that case, and hooks that only need comm/argv0 still get a chance to
// match (spec.md §4.2's "skipped" language covers hooks whose detect
// depends on exe; comm/argv0-based hooks are unaffected).
func matchHooks(pid int, hooks []hook.Hook) (hook.Hook, bool) {
	comm := procutil.ReadComm(pid)
	exe := procutil.ReadExe(pid)
	argv0 := procutil.ReadArgv0(pid)

	for _, h := range hooks {
		if h.Detect(pid, comm, exe, argv0) != 0 {
			return h, true
		}
	}
	return hook.Hook{}, false
}
