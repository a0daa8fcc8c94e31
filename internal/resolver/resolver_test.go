package resolver

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvg/internal/detect"
	"nvg/internal/direction"
	"nvg/internal/hook"
)

// mockWM records every call it receives so tests can assert on call
// counts and arguments, the mocking style spec.md §8 asks for.
type mockWM struct {
	focusedPid    int
	moveFocusCall []direction.Direction
	moveFocusN    int
	afterMovePid  int
}

func (m *mockWM) FocusedPid() int {
	if m.moveFocusN > 0 {
		return m.afterMovePid
	}
	return m.focusedPid
}

func (m *mockWM) MoveFocus(dir direction.Direction) {
	m.moveFocusCall = append(m.moveFocusCall, dir)
	m.moveFocusN++
}

func (m *mockWM) Disconnect() {}

// mockHook builds a hook.Hook whose CanMove always answers with a
// fixed TriState and records every call.
func mockHook(name string, answer hook.TriState, calls *[]string) hook.Hook {
	return hook.Hook{
		Name: name,
		Detect: func(pid int, comm, exe, argv0 string) int {
			return pid
		},
		CanMove: func(pid int, dir direction.Direction, timeout time.Duration) hook.TriState {
			*calls = append(*calls, name+":canmove")
			return answer
		},
		MoveFocus: func(pid int, dir direction.Direction, timeout time.Duration) {
			*calls = append(*calls, name+":movefocus")
		},
		MoveToEdge: func(pid int, dir direction.Direction, timeout time.Duration) {
			*calls = append(*calls, fmt.Sprintf("%s:movetoedge:%s", name, dir))
		},
	}
}

func TestNoFocusedPidMovesWmOnce(t *testing.T) {
	wm := &mockWM{focusedPid: 0}
	detectAll := func(root int, hooks []hook.Hook) []detect.Detected { return nil }

	Navigate(wm, direction.Right, 100*time.Millisecond, nil, detectAll)

	assert.Equal(t, 1, wm.moveFocusN)
	assert.Equal(t, []direction.Direction{direction.Right}, wm.moveFocusCall)
}

func TestEmptyDetectionMovesWm(t *testing.T) {
	wm := &mockWM{focusedPid: 42}
	detectAll := func(root int, hooks []hook.Hook) []detect.Detected { return nil }

	Navigate(wm, direction.Left, 100*time.Millisecond, nil, detectAll)

	assert.Equal(t, 1, wm.moveFocusN)
}

func TestInnermostTrueHookWinsNoOuterConsulted(t *testing.T) {
	var calls []string
	outer := mockHook("outer", hook.No, &calls)
	inner := mockHook("inner", hook.Yes, &calls)

	wm := &mockWM{focusedPid: 42}
	detectAll := func(root int, hooks []hook.Hook) []detect.Detected {
		return []detect.Detected{
			{Hook: outer, Pid: 10, Depth: 1},
			{Hook: inner, Pid: 20, Depth: 2},
		}
	}

	Navigate(wm, direction.Up, 100*time.Millisecond, nil, detectAll)

	require.Equal(t, []string{"inner:canmove", "inner:movefocus"}, calls)
	assert.Equal(t, 0, wm.moveFocusN)
}

func TestAllFalseOrAbsentBubblesToWm(t *testing.T) {
	var calls []string
	outer := mockHook("outer", hook.No, &calls)
	inner := mockHook("inner", hook.Unknown, &calls)

	wm := &mockWM{focusedPid: 42}
	detectAll := func(root int, hooks []hook.Hook) []detect.Detected {
		return []detect.Detected{
			{Hook: outer, Pid: 10, Depth: 1},
			{Hook: inner, Pid: 20, Depth: 2},
		}
	}

	Navigate(wm, direction.Down, 100*time.Millisecond, nil, detectAll)

	assert.Equal(t, 1, wm.moveFocusN)
	assert.ElementsMatch(t, []string{"outer:canmove", "inner:canmove"}, calls)
}

func TestPostMoveLandsAtDeepestHookEdgeWithOppositeDirection(t *testing.T) {
	var calls []string
	shallow := mockHook("shallow", hook.Unknown, &calls)
	deep := mockHook("deep", hook.Unknown, &calls)

	wm := &mockWM{focusedPid: 0, afterMovePid: 99}
	callCount := 0
	detectAll := func(root int, hooks []hook.Hook) []detect.Detected {
		callCount++
		if root == 99 {
			return []detect.Detected{
				{Hook: shallow, Pid: 10, Depth: 1},
				{Hook: deep, Pid: 20, Depth: 2},
			}
		}
		return nil
	}

	Navigate(wm, direction.Right, 100*time.Millisecond, nil, detectAll)

	assert.Equal(t, 1, wm.moveFocusN)
	assert.Equal(t, []string{fmt.Sprintf("deep:movetoedge:%s", direction.Right.Opposite())}, calls)
}

func TestPostMoveNoDetectionIsNoop(t *testing.T) {
	wm := &mockWM{focusedPid: 0, afterMovePid: 99}
	detectAll := func(root int, hooks []hook.Hook) []detect.Detected { return nil }

	assert.NotPanics(t, func() {
		Navigate(wm, direction.Left, 100*time.Millisecond, nil, detectAll)
	})
	assert.Equal(t, 1, wm.moveFocusN)
}
