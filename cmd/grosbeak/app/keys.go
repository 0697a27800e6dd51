package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/citruscircuits/grosbeak/internal/service"
	"github.com/citruscircuits/grosbeak/internal/sources"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key",
		Long: `Create an API key in the configured record store and print it.
Levels: 0 viewer, 1 scout, 2 admin.`,
		RunE: runKeysCreate,
	}
	addConfigFlag(create)
	create.Flags().String("description", "", "Who or what the key is for")
	create.Flags().Int("level", sources.LevelViewer, "Access level (0 viewer, 1 scout, 2 admin)")

	cmd.AddCommand(create)
	return cmd
}

func runKeysCreate(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	description, err := cmd.Flags().GetString("description")
	if err != nil {
		return fmt.Errorf("failed to get description flag: %w", err)
	}
	level, err := cmd.Flags().GetInt("level")
	if err != nil {
		return fmt.Errorf("failed to get level flag: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := sources.NewStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer func() { _ = store.Close() }()

	svc, err := service.New(service.WithStore(store), service.WithDefaultEventKey(cfg.GetEventKey()))
	if err != nil {
		return err
	}
	cred, err := svc.CreateCredential(ctx, description, level)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), cred.APIKey)
	return err
}
