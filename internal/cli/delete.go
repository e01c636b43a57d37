package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbpedia/databusclient/pkg/client"
	"github.com/dbpedia/databusclient/pkg/registry"
)

type deleteFlags struct {
	apiKey string
	dryRun bool
	force  bool
}

// NewDeleteCmd creates the delete command.
func NewDeleteCmd() *cobra.Command {
	var flags deleteFlags

	cmd := &cobra.Command{
		Use:   "delete DATABUSURI...",
		Short: "Delete datasets from the Databus",
		Long: `Delete versions, artifacts, groups or collections from the Databus.

Artifacts are expanded into their versions and groups into their artifacts
before deletion, so nothing is orphaned. Every resource is confirmed
interactively unless --force or --dry-run is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.apiKey, "apikey", "", "Databus API key (defaults to config databus_key)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Only print what would be deleted")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Delete without asking for confirmation")

	return cmd
}

func runDelete(ctx context.Context, identifiers []string, flags deleteFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	apiKey := cfg.Settings.DatabusKey
	if flags.apiKey != "" {
		apiKey = flags.apiKey
	}

	registryClient := registry.NewClient(cfg.Settings.HTTPTimeout, apiKey)
	deleter := registry.NewDeleter(registryClient, flags.dryRun, flags.force, confirmPrompt(os.Stdin))

	c := client.New(nil, nil, nil, deleter, progressHooks())
	if err := c.Delete(ctx, identifiers); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

// confirmPrompt asks per resource on the terminal. Answers: y deletes,
// s skips, c cancels the whole run. Enter defaults to cancel.
func confirmPrompt(in *os.File) registry.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(uri string) (registry.ConfirmAction, error) {
		fmt.Printf("Delete %s? [y]es / [s]kip / [c]ancel: ", uri)
		line, err := reader.ReadString('\n')
		if err != nil {
			return registry.ConfirmCancel, fmt.Errorf("reading confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return registry.ConfirmYes, nil
		case "s", "skip":
			return registry.ConfirmSkip, nil
		default:
			return registry.ConfirmCancel, nil
		}
	}
}
