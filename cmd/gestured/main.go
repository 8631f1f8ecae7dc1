package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	evdev "github.com/holoplot/go-evdev"

	"github.com/gestured/gestured/internal/config"
	"github.com/gestured/gestured/internal/daemon"
	"github.com/gestured/gestured/internal/logging"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to a single configuration file (default: merge the standard locations)")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	listDevices := flag.Bool("list-devices", false, "list available input devices and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("gestured %s\n", version)
		return
	}
	if *listDevices {
		if err := printDevices(); err != nil {
			fmt.Fprintf(os.Stderr, "cannot list devices: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logging.Init()
	if err := logging.SetLevel(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	load := func() (*config.Config, error) {
		if *configPath != "" {
			return config.LoadFile(*configPath)
		}
		return config.Load(), nil
	}

	reload := daemon.NewNotifier()
	stop := daemon.NewNotifier()
	handleSignals(reload, stop)

	watchDirs := config.WatchDirs()
	if *configPath != "" {
		watchDirs = []string{filepath.Dir(*configPath)}
	}
	if watcher, err := daemon.NewWatcher(reload, watchDirs); err != nil {
		// Reloads still work through SIGHUP.
		slog.Warn("cannot start filesystem watcher", "error", err)
	} else {
		defer watcher.Close()
	}

	d := daemon.NewDaemon(load, reload, stop)
	if err := d.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "gestured: %v\n", err)
		os.Exit(1)
	}
}

// handleSignals maps SIGHUP to a configuration reload and the usual
// termination signals to a cooperative shutdown.
func handleSignals(reload, stop *daemon.Notifier) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			if sig == syscall.SIGHUP {
				reload.Raise()
				continue
			}
			stop.Raise()
		}
	}()
}

func printDevices() error {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println("no input devices found (are you in the input group?)")
		return nil
	}
	for _, p := range paths {
		fmt.Printf("%s\t%s\n", p.Path, p.Name)
	}
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: gestured [options]\n\n")
	fmt.Fprintf(os.Stderr, "Trackpad gesture daemon. Configuration files are merged from:\n")
	for _, dir := range config.Dirs() {
		fmt.Fprintf(os.Stderr, "  %s\n", dir)
	}
	fmt.Fprintf(os.Stderr, "\noptions:\n")
	flag.PrintDefaults()
}
