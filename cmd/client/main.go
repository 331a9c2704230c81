package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dkravets/questpath/internal/buildinfo"
	"github.com/dkravets/questpath/internal/client/cli"
	"github.com/dkravets/questpath/internal/client/config"
	"github.com/dkravets/questpath/internal/flagx"
	"github.com/dkravets/questpath/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer app.Close()

	// Config flags are consumed by LoadConfig; the command tree gets the rest.
	args := flagx.StripArgs(os.Args[1:], []string{"-a", "-t", "-d", "-c", "-config"})

	if err := app.Run(ctx, args); err != nil {
		os.Exit(1)
	}
}
