package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/liamzebedee/tinyconsensus/config"
	"github.com/liamzebedee/tinyconsensus/core"
	"github.com/urfave/cli/v2"
)

// Prefix for environment overrides, e.g. CONSENSIM_BROADCAST_N.
const EnvPrefix = "CONSENSIM"

var chainFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "genesis",
		Usage: "Payload of the genesis block",
	},
	&cli.StringFlag{
		Name:  "scenario",
		Usage: "Block scenario to run: growth or fork",
	},
	&cli.IntFlag{
		Name:  "rounds",
		Usage: "Number of rounds in the growth scenario",
	},
	&cli.IntFlag{
		Name:  "fork-main",
		Usage: "Length of the main branch in the fork scenario",
	},
	&cli.IntFlag{
		Name:  "fork-len",
		Usage: "Length of the competing branch in the fork scenario",
	},
}

func NewApp() *cli.App {
	return &cli.App{
		Name:                 "consensim",
		Usage:                "deterministic simulations of Dolev-Strong broadcast and Nakamoto chains",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a simulation config file",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress log output",
			},
		},
		Before: func(cmdCtx *cli.Context) error {
			// Logs go to stderr so stdout stays valid JSON.
			core.LogOutput = os.Stderr
			if cmdCtx.Bool("quiet") {
				core.LogOutput = io.Discard
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "dolev",
				Usage:  "runs a Dolev-Strong broadcast and prints every honest node's decision",
				Action: RunDolev,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "n",
						Usage: "Number of nodes",
					},
					&cli.IntFlag{
						Name:  "f",
						Usage: "Number of tolerated corruptions",
					},
					&cli.IntFlag{
						Name:  "sender",
						Usage: "Identity of the sender",
					},
					&cli.StringFlag{
						Name:  "input",
						Usage: "The sender's input value",
					},
					&cli.StringFlag{
						Name:  "corrupt",
						Usage: "Comma-separated omission-faulty node identities",
					},
					&cli.StringFlag{
						Name:  "signer",
						Usage: "Signature scheme: hash, ecdsa or bls",
					},
					&cli.BoolFlag{
						Name:  "parallel",
						Usage: "Compute each node's round on its own goroutine",
					},
				},
			},
			{
				Name:   "chain",
				Usage:  "feeds synthesized block rounds into a chain store and prints the result",
				Action: RunChain,
				Flags:  chainFlags,
			},
			{
				Name:   "explorer",
				Usage:  "runs a chain scenario and serves the result over HTTP",
				Action: RunExplorer,
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "The port to run the explorer on",
					},
				}, chainFlags...),
			},
		},
	}
}

// Loads the config file, then applies any flags set on the command line.
func loadConfig(cmdCtx *cli.Context) (*config.Config, error) {
	conf, err := config.LoadConfig(EnvPrefix, cmdCtx.String("config"))
	if err != nil {
		return nil, err
	}

	if cmdCtx.IsSet("n") {
		conf.Broadcast.N = cmdCtx.Int("n")
	}
	if cmdCtx.IsSet("f") {
		conf.Broadcast.F = cmdCtx.Int("f")
	}
	if cmdCtx.IsSet("sender") {
		conf.Broadcast.Sender = cmdCtx.Int("sender")
	}
	if cmdCtx.IsSet("input") {
		conf.Broadcast.SenderInput = cmdCtx.String("input")
	}
	if cmdCtx.IsSet("corrupt") {
		corrupt, err := parseIDList(cmdCtx.String("corrupt"))
		if err != nil {
			return nil, err
		}
		conf.Broadcast.Corrupt = corrupt
	}
	if cmdCtx.IsSet("signer") {
		conf.Broadcast.Signer = cmdCtx.String("signer")
	}
	if cmdCtx.IsSet("parallel") {
		conf.Broadcast.Parallel = cmdCtx.Bool("parallel")
	}

	if cmdCtx.IsSet("genesis") {
		conf.Chain.GenesisPayload = cmdCtx.String("genesis")
	}
	if cmdCtx.IsSet("scenario") {
		conf.Chain.Scenario = cmdCtx.String("scenario")
	}
	if cmdCtx.IsSet("rounds") {
		conf.Chain.Rounds = cmdCtx.Int("rounds")
	}
	if cmdCtx.IsSet("fork-main") {
		conf.Chain.ForkMainLen = cmdCtx.Int("fork-main")
	}
	if cmdCtx.IsSet("fork-len") {
		conf.Chain.ForkLen = cmdCtx.Int("fork-len")
	}
	if cmdCtx.IsSet("port") {
		conf.Explorer.Port = cmdCtx.Int("port")
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func parseIDList(s string) ([]int, error) {
	ids := []int{}
	if strings.TrimSpace(s) == "" {
		return ids, nil
	}
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("Invalid node id: %s", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printJSON(w io.Writer, v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(buf))
	return err
}
