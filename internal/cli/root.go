package cli

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/umalmyha/customersync/internal/config"
	"github.com/umalmyha/customersync/internal/infra"
)

// NewRootCommand builds customersync command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "customersync",
		Short:         "Reconcile external customers with the customer store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand(), newConsumeCommand(), newSyncCommand())
	return root
}

// Execute runs command tree with args
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func setup() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Build()
	if err != nil {
		return cfg, nil, err
	}

	logger, err := infra.Logger(cfg.LogCfg)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
