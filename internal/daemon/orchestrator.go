//go:build linux

package daemon

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gestured/gestured/internal/config"
	"github.com/gestured/gestured/internal/evdev"
)

// Loader produces the effective configuration for one daemon generation.
type Loader func() (*config.Config, error)

// Daemon runs one session per configured device and restarts the whole
// set when a reload is requested.
type Daemon struct {
	load   Loader
	open   func(path string) (Transport, error)
	exec   Executor
	reload *Notifier
	stop   *Notifier
	log    *slog.Logger
}

func NewDaemon(load Loader, reload, stop *Notifier) *Daemon {
	return &Daemon{
		load: load,
		open: func(path string) (Transport, error) {
			return evdev.Open(path)
		},
		exec:   ShellExecutor{},
		reload: reload,
		stop:   stop,
		log:    slog.Default(),
	}
}

// Run drives load-and-watch generations until the sessions end without a
// pending reload. A configuration with no devices is a fatal error.
func (d *Daemon) Run() error {
	for {
		cfg, err := d.load()
		if err != nil {
			return err
		}
		if len(cfg.Devices) == 0 {
			return errors.New("no configured devices found, exiting")
		}

		var wg sync.WaitGroup
		started := 0
		for path, table := range cfg.Devices {
			t, err := d.open(path)
			if err != nil {
				d.log.Error("cannot open device", "path", path, "error", err)
				continue
			}
			d.log.Info("watching device", "path", path, "name", t.Name())
			s := NewSession(t, table, cfg.Tuning, d.exec, d.reload, d.stop)
			wg.Add(1)
			started++
			go func() {
				defer wg.Done()
				s.Run()
			}()
		}
		if started == 0 {
			return errors.New("no configured devices could be opened")
		}
		wg.Wait()

		if d.stop.Raised() {
			d.log.Info("shutting down")
			return nil
		}
		if !d.reload.Clear() {
			d.log.Info("all device sessions ended")
			return nil
		}
		d.log.Info("reloading configuration")
	}
}
