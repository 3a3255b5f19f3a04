// Command sigctl inspects and exercises the guest signal subsystem.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/lunixbochs/sigcorn/go/models"
)

func loadConfig(path string) (*models.Config, error) {
	if path == "" {
		path = models.FindConfig()
	}
	if path == "" {
		return models.DefaultConfig(), nil
	}
	return models.LoadConfig(path)
}

// configFrom pulls the config main passes through subcommands.Execute.
func configFrom(args []interface{}) *models.Config {
	if len(args) > 0 {
		if config, ok := args[0].(*models.Config); ok {
			return config
		}
	}
	return models.DefaultConfig()
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&actionsCmd{}, "inspect")
	subcommands.Register(&maskCmd{}, "inspect")
	subcommands.Register(&frameCmd{}, "inspect")
	subcommands.Register(&scenarioCmd{}, "run")

	configPath := flag.String("config", "", "config file (default: "+models.ConfigName+" in the config dirs)")
	flag.Parse()
	config, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	os.Exit(int(subcommands.Execute(context.Background(), config)))
}
