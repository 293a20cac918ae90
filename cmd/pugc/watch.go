// Copyright 2025 The go-pug Authors
// This file is part of go-pug.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rjeczalik/notify"
)

// watch recompiles inputs whenever their files change, until interrupted.
func watch(inputs []string, job compileJob) error {
	targets := make(map[string]string, len(inputs))
	dirs := make(map[string]bool)
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		targets[abs] = in
		dirs[filepath.Dir(abs)] = true
	}

	events := make(chan notify.EventInfo, 16)
	for dir := range dirs {
		if err := notify.Watch(dir, events, notify.Write, notify.Create, notify.Rename); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	defer notify.Stop(events)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("watching %d file(s), ^C to stop\n", len(targets))
	for {
		select {
		case ev := <-events:
			in, ok := targets[ev.Path()]
			if !ok {
				continue
			}
			if err := job.compileOne(in); err != nil {
				// Keep watching: a broken intermediate save is routine.
				_, _ = errColor.Fprintf(os.Stderr, "pugc: %v\n", err)
			}
		case <-interrupt:
			return nil
		}
	}
}
