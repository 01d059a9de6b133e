// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"

	"github.com/bartekus/refsync/cmd/refsync/commands"
	"github.com/bartekus/refsync/cmd/refsync/internal/clierr"
	"github.com/bartekus/refsync/internal/logger"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := fang.Execute(ctx, commands.NewRootCmd(version), fang.WithVersion(version))
	stop()
	_ = logger.Close()
	if err != nil {
		os.Exit(clierr.ExitCodeOf(err))
	}
}
