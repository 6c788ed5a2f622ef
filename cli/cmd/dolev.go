package cmd

import (
	"github.com/liamzebedee/tinyconsensus/explorer"
	"github.com/urfave/cli/v2"
)

func RunDolev(cmdCtx *cli.Context) error {
	conf, err := loadConfig(cmdCtx)
	if err != nil {
		return err
	}

	params, err := conf.BroadcastParams()
	if err != nil {
		return err
	}

	report, err := explorer.RunBroadcastScenario(params)
	if err != nil {
		return err
	}
	return printJSON(cmdCtx.App.Writer, report)
}
