package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cogauthcmd "github.com/telekom/cogauth/pkg/cmd"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := cogauthcmd.DefaultConfig()
	cfg.Context = ctx
	root := cogauthcmd.NewRootCommand(cfg)
	root.SetArgs(args)
	return cogauthcmd.ExitCode(root.Execute())
}
