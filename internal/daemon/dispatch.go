//go:build linux

package daemon

import (
	"log/slog"
	"os/exec"

	"github.com/gestured/gestured/internal/config"
	"github.com/gestured/gestured/internal/gesture"
)

// Executor carries out an action triggered by a gesture. It must not
// block the dispatching session and must not leak child processes.
type Executor interface {
	Execute(action config.Action, trigger gesture.Gesture)
}

// ShellExecutor runs Execute actions through `sh -c`. Each child is
// waited on from its own goroutine so no zombies accumulate, however
// fast gestures fire.
type ShellExecutor struct{}

func (ShellExecutor) Execute(action config.Action, trigger gesture.Gesture) {
	if action.Execute == "" {
		return
	}
	cmd := exec.Command("sh", "-c", action.Execute)
	if err := cmd.Start(); err != nil {
		slog.Error("failed to start action", "command", action.Execute, "error", err)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Debug("action exited with error",
				"command", action.Execute, "gesture", trigger.String(), "error", err)
		}
	}()
}

// dispatch looks the gesture up in the device's table and hands any
// match to the executor. No match is silently a no-op.
func dispatch(table config.GestureMap, g gesture.Gesture, exec Executor, log *slog.Logger) {
	log.Info("recognized gesture", "gesture", g.String())

	action, ok := table[g]
	if !ok {
		return
	}
	exec.Execute(action, g)
}
