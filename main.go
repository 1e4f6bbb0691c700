// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"audiobackend/cmd"
	applog "audiobackend/internal/log"
	"audiobackend/pkg/build"
)

// main wires build metadata, signal handling and the command tree. The
// stream callback runs on a PortAudio thread; the remaining work is the
// publisher and UI, so two OS threads are enough.
func main() {
	if err := build.Initialize(); err != nil {
		if !errors.Is(err, build.ErrMissingFlags) {
			applog.Fatal(err)
		}
		applog.Debugf("build: %v, using development metadata", err)
	}

	runtime.GOMAXPROCS(2)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		applog.Fatal(err)
	}
}
