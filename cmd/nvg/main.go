// Command nvg moves focus one step in a direction, inside the focused
// application if a focus-aware hook claims the keystroke, otherwise
// between windows of the host window manager (spec.md §1).
package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nvg/internal/debuglog"
	"nvg/internal/detect"
	"nvg/internal/direction"
	"nvg/internal/hook"
	"nvg/internal/resolver"
	"nvg/internal/wm"
)

var errColor = color.New(color.FgRed, color.Bold)

const defaultTimeout = 100 * time.Millisecond

var allHookNames = []string{"nvim", "tmux", "vscode", "kitty", "wezterm", "ghostty"}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		timeoutMs int
		hooksFlag string
		wmFlag    string
		showVer   bool
	)

	root := &cobra.Command{
		Use:           "nvg <left|right|up|down>",
		Short:         "Directional focus navigation across editors, multiplexers and window managers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVer {
				fmt.Println(version())
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one direction argument")
			}

			dir, err := direction.FromString(args[0])
			if err != nil {
				return fmt.Errorf("usage: %w", err)
			}

			hookNames := allHookNames
			if cmd.Flags().Changed("hooks") {
				if hooksFlag == "" {
					return fmt.Errorf("--hooks must name at least one hook")
				}
				hookNames = strings.Split(hooksFlag, ",")
				for _, n := range hookNames {
					if !isKnownHook(n) {
						return fmt.Errorf("unknown hook %q", n)
					}
				}
			}

			timeout := defaultTimeout
			if timeoutMs > 0 {
				timeout = time.Duration(timeoutMs) * time.Millisecond
			}

			backend, err := wm.Detect(wmFlag)
			if err != nil {
				return err
			}
			debuglog.Debug("detected backend", "backend", backend.String())

			manager, err := wm.New(backend, wm.Config{Timeout: timeout})
			if err != nil {
				return err
			}
			defer manager.Disconnect()

			hooks := hook.ByNames(hookNames)
			resolver.Navigate(manager, dir, timeout, hooks, detect.All)
			return nil
		},
	}

	root.Flags().IntVarP(&timeoutMs, "timeout", "t", 0, "IPC timeout in milliseconds (default 100)")
	root.Flags().StringVar(&hooksFlag, "hooks", "", "comma-separated hooks to enable (default: all)")
	root.Flags().StringVar(&wmFlag, "wm", "", "force a window manager backend instead of auto-detecting")
	root.Flags().BoolVarP(&showVer, "version", "v", false, "print the version and exit")

	if err := root.Execute(); err != nil {
		errColor.Fprintln(os.Stderr, "nvg:", err)
		return 1
	}
	return 0
}

func isKnownHook(name string) bool {
	for _, n := range allHookNames {
		if n == name {
			return true
		}
	}
	return false
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "nvg (unknown version)"
	}
	return "nvg " + info.Main.Version
}
