/*
Package config describes a simulation run and loads it from a configuration file and the
environment.
*/
package config

import (
	"fmt"
	"strings"

	"github.com/liamzebedee/tinyconsensus/core/dolevstrong"
	"github.com/spf13/viper"
)

const (
	ScenarioGrowth = "growth"
	ScenarioFork   = "fork"
)

// BroadcastConfig describes one Dolev-Strong run.
type BroadcastConfig struct {
	N           int
	F           int
	Sender      int
	SenderInput string
	Corrupt     []int
	Signer      string
	Parallel    bool
}

// ChainConfig describes the synthesized block rounds fed to the chain store.
type ChainConfig struct {
	GenesisPayload string
	Scenario       string
	Rounds         int
	ForkMainLen    int
	ForkLen        int
}

type ExplorerConfig struct {
	Port int
}

// Config defines a type to describe the configuration.
type Config struct {
	Broadcast BroadcastConfig
	Chain     ChainConfig
	Explorer  ExplorerConfig
	Quiet     bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("broadcast.n", 4)
	v.SetDefault("broadcast.f", 1)
	v.SetDefault("broadcast.sender", 1)
	v.SetDefault("broadcast.sender_input", "1")
	v.SetDefault("broadcast.corrupt", []int{})
	v.SetDefault("broadcast.signer", dolevstrong.SchemeHash)
	v.SetDefault("broadcast.parallel", false)

	v.SetDefault("chain.genesis_payload", "genesis")
	v.SetDefault("chain.scenario", ScenarioGrowth)
	v.SetDefault("chain.rounds", 10)
	v.SetDefault("chain.fork_main_len", 2)
	v.SetDefault("chain.fork_len", 4)

	v.SetDefault("explorer.port", 8080)
	v.SetDefault("quiet", false)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

// LoadConfig loads the configuration file at path by package viper. Environment variables named
// <PREFIX>_<SECTION>_<KEY> override file values. An empty path loads defaults and environment only.
func LoadConfig(envPrefix string, path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// for environment variables
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", path, err)
		}
	}

	conf := fromViper(v)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Broadcast: BroadcastConfig{
			N:           v.GetInt("broadcast.n"),
			F:           v.GetInt("broadcast.f"),
			Sender:      v.GetInt("broadcast.sender"),
			SenderInput: v.GetString("broadcast.sender_input"),
			Corrupt:     v.GetIntSlice("broadcast.corrupt"),
			Signer:      v.GetString("broadcast.signer"),
			Parallel:    v.GetBool("broadcast.parallel"),
		},
		Chain: ChainConfig{
			GenesisPayload: v.GetString("chain.genesis_payload"),
			Scenario:       v.GetString("chain.scenario"),
			Rounds:         v.GetInt("chain.rounds"),
			ForkMainLen:    v.GetInt("chain.fork_main_len"),
			ForkLen:        v.GetInt("chain.fork_len"),
		},
		Explorer: ExplorerConfig{
			Port: v.GetInt("explorer.port"),
		},
		Quiet: v.GetBool("quiet"),
	}
}

// Validate checks the values the protocol itself does not.
func (c *Config) Validate() error {
	switch c.Broadcast.Signer {
	case dolevstrong.SchemeHash, dolevstrong.SchemeECDSA, dolevstrong.SchemeBLS:
	default:
		return fmt.Errorf("unknown signer %q", c.Broadcast.Signer)
	}
	if c.Broadcast.Sender < 0 {
		return fmt.Errorf("sender must not be negative, got %d", c.Broadcast.Sender)
	}
	for _, id := range c.Broadcast.Corrupt {
		if id < 0 {
			return fmt.Errorf("corrupt node must not be negative, got %d", id)
		}
	}
	switch c.Chain.Scenario {
	case ScenarioGrowth, ScenarioFork:
	default:
		return fmt.Errorf("unknown chain scenario %q", c.Chain.Scenario)
	}
	if c.Chain.Rounds < 0 || c.Chain.ForkMainLen < 0 || c.Chain.ForkLen < 0 {
		return fmt.Errorf("round counts must not be negative")
	}
	return nil
}

// BroadcastParams converts the broadcast section into protocol parameters, creating the signer.
func (c *Config) BroadcastParams() (dolevstrong.Params, error) {
	b := c.Broadcast
	signer, err := dolevstrong.NewSigner(b.Signer, b.N)
	if err != nil {
		return dolevstrong.Params{}, err
	}

	corrupt := make([]dolevstrong.NodeID, 0, len(b.Corrupt))
	for _, id := range b.Corrupt {
		corrupt = append(corrupt, dolevstrong.NodeID(id))
	}

	return dolevstrong.Params{
		N:           b.N,
		F:           b.F,
		Sender:      dolevstrong.NodeID(b.Sender),
		SenderInput: b.SenderInput,
		Corrupt:     corrupt,
		Signer:      signer,
		Parallel:    b.Parallel,
	}, nil
}
