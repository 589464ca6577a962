package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/umalmyha/customersync/internal/infra"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/service"
)

func newSyncCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync external customers read from yaml or json file",
		Example: `  customersync sync --file customers.yaml
  STORE_BACKEND=memory customersync sync --file customer.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			customers, err := readExternalCustomers(file)
			if err != nil {
				return err
			}

			svcs, err := infra.BuildServices(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer svcs.Close(context.Background(), logger)

			return syncAll(cmd.Context(), svcs.SyncSvc, customers, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "yaml or json file with one external customer or a list of them")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readExternalCustomers(path string) ([]model.ExternalCustomer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read external customers file - %w", err)
	}
	return decodeExternalCustomers(data)
}

// decodeExternalCustomers accepts yaml or json document holding either a list of customers or a single one
func decodeExternalCustomers(data []byte) ([]model.ExternalCustomer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("external customers file is empty")
	}

	var customers []model.ExternalCustomer
	if trimmed[0] == '[' || trimmed[0] == '-' {
		if err := yaml.Unmarshal(trimmed, &customers); err != nil {
			return nil, fmt.Errorf("failed to decode external customers - %w", err)
		}
		return customers, nil
	}

	var single model.ExternalCustomer
	if err := yaml.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("failed to decode external customer - %w", err)
	}
	return []model.ExternalCustomer{single}, nil
}

// syncAll syncs customers one by one, failures are reported and don't stop the rest
func syncAll(ctx context.Context, syncSvc service.CustomerSyncService, customers []model.ExternalCustomer, out io.Writer) error {
	table := tablewriter.NewTable(out)
	table.Header("External ID", "Type", "Result", "Error")

	failed := 0
	for _, ext := range customers {
		row := []any{ext.ExternalID, ext.CustomerType()}

		action, err := syncSvc.Sync(ctx, ext)
		if err != nil {
			failed++
			row = append(row, "FAILED", err.Error())
		} else {
			row = append(row, action, "")
		}

		if err := table.Append(row...); err != nil {
			return err
		}
	}

	if err := table.Render(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d external customers failed to sync", failed, len(customers))
	}
	return nil
}
