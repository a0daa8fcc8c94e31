package hook

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvg/internal/direction"
)

func TestAllRegistrationOrder(t *testing.T) {
	names := []string{}
	for _, h := range All() {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"nvim", "tmux", "vscode", "kitty", "wezterm", "ghostty"}, names)
}

func TestByNamesPreservesRegistrationOrder(t *testing.T) {
	got := ByNames([]string{"wezterm", "nvim"})
	names := []string{}
	for _, h := range got {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"nvim", "wezterm"}, names)
}

func TestByNamesIgnoresUnknown(t *testing.T) {
	got := ByNames([]string{"nvim", "bogus"})
	assert.Len(t, got, 1)
	assert.Equal(t, "nvim", got[0].Name)
}

func TestTriStateString(t *testing.T) {
	assert.Equal(t, "yes", Yes.String())
	assert.Equal(t, "no", No.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestDetectNvimExcludesQtHelper(t *testing.T) {
	assert.Equal(t, 0, detectNvim(5, "nvim-qt", "/usr/bin/nvim-qt", "nvim-qt"))
}

func TestDetectNvimMatchesArgv0(t *testing.T) {
	assert.Equal(t, 5, detectNvim(5, "nvim", "/usr/bin/nvim", "nvim"))
}

func TestDetectVSCodeExactBasenameOnly(t *testing.T) {
	assert.Equal(t, 0, detectVSCode(1, "barcode", "/usr/bin/barcode", "barcode"))
	assert.Equal(t, 0, detectVSCode(1, "unicode", "/usr/bin/unicode", "unicode"))
	assert.Equal(t, 1, detectVSCode(1, "code", "/usr/bin/code", "code"))
	assert.Equal(t, 1, detectVSCode(1, "code-oss", "/usr/bin/code-oss", "code-oss"))
}

func TestDetectKittyExcludesKitten(t *testing.T) {
	assert.Equal(t, 0, detectKitty(1, "kitten", "/usr/bin/kitten", "kitten"))
	assert.Equal(t, 1, detectKitty(1, "kitty", "/usr/bin/kitty", "kitty"))
}

func TestDetectTmuxSubstring(t *testing.T) {
	assert.Equal(t, 3, detectTmux(3, "tmux: server", "", ""))
	assert.Equal(t, 0, detectTmux(3, "bash", "", ""))
}

func TestDetectWezTermSubstring(t *testing.T) {
	assert.Equal(t, 4, detectWezTerm(4, "wezterm-gui", "", ""))
	assert.Equal(t, 0, detectWezTerm(4, "bash", "", ""))
}

func TestDetectGhosttySubstring(t *testing.T) {
	assert.Equal(t, 6, detectGhostty(6, "ghostty", "", ""))
	assert.Equal(t, 0, detectGhostty(6, "bash", "", ""))
}

func TestTmuxSocketFromEnvValue(t *testing.T) {
	// tmuxSocket parses "<socket>,<pid>,<session>"; exercised directly
	// against the env-value shape since PidEnv itself is procutil's.
	socket, ok := parseTmuxEnvValue("/tmp/tmux-1000/default,1234,0")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/tmux-1000/default", socket)
}

func TestKittyFocusArgsMatchesDocumentedWireContract(t *testing.T) {
	// kitten @ action --to <sock> neighboring_window <dir>
	got := kittyFocusArgs("/tmp/kitty.sock", direction.Left)
	assert.Equal(t, []string{"@", "action", "--to", "/tmp/kitty.sock", "neighboring_window", "left"}, got)
}

func TestWeztermArgsIncludesSocketWhenPresent(t *testing.T) {
	got := weztermArgs("/tmp/wezterm.sock", "activate-pane-direction", "Left")
	assert.Equal(t, []string{"cli", "--unix-socket", "/tmp/wezterm.sock", "activate-pane-direction", "Left"}, got)
}

func TestWeztermArgsOmitsSocketFlagWhenEmpty(t *testing.T) {
	got := weztermArgs("", "activate-pane-direction", "Left")
	assert.Equal(t, []string{"cli", "activate-pane-direction", "Left"}, got)
}

func TestKittyWindowIDFallsBackToOwnEnvironment(t *testing.T) {
	// A dead pid's /proc/<pid>/environ is unreadable, so kittyWindowID
	// must fall back to this process's own KITTY_WINDOW_ID, per spec.md
	// §4.3.4's documented fallback.
	require.NoError(t, os.Setenv("KITTY_WINDOW_ID", "7"))
	defer os.Unsetenv("KITTY_WINDOW_ID")

	id, ok := kittyWindowID(999999999)
	assert.True(t, ok)
	assert.Equal(t, 7, id)
}

func TestKittyWindowIDAbsentEverywhere(t *testing.T) {
	os.Unsetenv("KITTY_WINDOW_ID")
	_, ok := kittyWindowID(999999999)
	assert.False(t, ok)
}
