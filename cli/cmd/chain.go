package cmd

import (
	"time"

	"github.com/liamzebedee/tinyconsensus/config"
	"github.com/liamzebedee/tinyconsensus/core/nakamoto"
	"github.com/liamzebedee/tinyconsensus/explorer"
	"github.com/urfave/cli/v2"
)

// Builds a chain store and runs the configured scenario on it.
func runChainScenario(conf *config.Config) (*nakamoto.ChainStore, explorer.ChainReport) {
	store := nakamoto.NewChainStore()
	genesis := store.InitializeGenesisAt(conf.Chain.GenesisPayload, time.Now())

	var rounds [][]nakamoto.Block
	switch conf.Chain.Scenario {
	case config.ScenarioFork:
		rounds = nakamoto.ForkRounds(genesis, conf.Chain.ForkMainLen, conf.Chain.ForkLen)
	default:
		rounds = nakamoto.GrowthRounds(genesis, conf.Chain.Rounds)
	}

	return store, explorer.RunChainScenario(store, rounds)
}

func RunChain(cmdCtx *cli.Context) error {
	conf, err := loadConfig(cmdCtx)
	if err != nil {
		return err
	}

	_, report := runChainScenario(conf)
	return printJSON(cmdCtx.App.Writer, report)
}
