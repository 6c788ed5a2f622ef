package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/liamzebedee/tinyconsensus/explorer"
	"github.com/urfave/cli/v2"
)

func RunExplorer(cmdCtx *cli.Context) error {
	conf, err := loadConfig(cmdCtx)
	if err != nil {
		return err
	}

	store, _ := runChainScenario(conf)

	// Handle process signals.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c

		fmt.Fprintln(os.Stderr, "Shutting down...")

		os.Exit(1)
	}()

	expl, err := explorer.NewBlockExplorerServer(store, conf.Explorer.Port)
	if err != nil {
		return err
	}
	return expl.Start()
}
