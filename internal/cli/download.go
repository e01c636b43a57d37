package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbpedia/databusclient/pkg/client"
	"github.com/dbpedia/databusclient/pkg/compression"
	"github.com/dbpedia/databusclient/pkg/config"
	"github.com/dbpedia/databusclient/pkg/download"
	"github.com/dbpedia/databusclient/pkg/hooks"
	"github.com/dbpedia/databusclient/pkg/model"
	"github.com/dbpedia/databusclient/pkg/registry"
	"github.com/dbpedia/databusclient/pkg/vault"
)

type downloadFlags struct {
	localDir    string
	endpoint    string
	tokenFile   string
	authURL     string
	clientID    string
	databusKey  string
	allVersions bool
	checksum    string
	convertTo   string
	convertFrom string
	postHook    string
}

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	var flags downloadFlags

	cmd := &cobra.Command{
		Use:   "download DATABUSURI...",
		Short: "Download datasets from the Databus",
		Long: `Download datasets from the Databus, optionally using vault access for
protected files.

Each argument is a Databus identifier (file, version, artifact, group,
collection) or a SPARQL query. Identifiers resolve to their file lists;
files land in an account/group/artifact/version tree under the working
directory unless --localdir points somewhere else.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.localDir, "localdir", "", "Local folder for downloaded files (if not given, a databus folder structure is created in the current working directory)")
	cmd.Flags().StringVar(&flags.endpoint, "databus", "", "Databus SPARQL endpoint (if not given, inferred from the identifier, e.g. https://databus.dbpedia.org/sparql)")
	cmd.Flags().StringVar(&flags.tokenFile, "token", "", "Path to the vault refresh token file")
	cmd.Flags().StringVar(&flags.authURL, "authurl", "", "Keycloak token endpoint URL (default: "+config.DefaultAuthURL+")")
	cmd.Flags().StringVar(&flags.clientID, "clientid", "", "Client ID for token exchange (default: "+config.DefaultClientID+")")
	cmd.Flags().StringVar(&flags.databusKey, "databus-key", "", "Databus API key for protected files")
	cmd.Flags().BoolVar(&flags.allVersions, "all-versions", false, "Download every version of an artifact instead of the latest")
	cmd.Flags().StringVar(&flags.checksum, "checksum", "", "Checksum validation: off, warning or error (defaults to config)")
	cmd.Flags().StringVar(&flags.convertTo, "convert-to", "", "Recompress downloaded files into this format (gz, bz2, xz, zstd)")
	cmd.Flags().StringVar(&flags.convertFrom, "convert-from", "", "Only convert files currently compressed in this format")
	cmd.Flags().StringVar(&flags.postHook, "post-hook", "", "Tengo script to run after each downloaded file")

	return cmd
}

func runDownload(ctx context.Context, identifiers []string, flags downloadFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDownloadFlags(cfg, flags)

	validation, err := model.ParseValidationMode(cfg.Settings.ChecksumMode)
	if err != nil {
		return err
	}
	convertTo, err := compression.ParseFormat(flags.convertTo)
	if err != nil {
		return err
	}
	convertFrom, err := compression.ParseFormat(flags.convertFrom)
	if err != nil {
		return err
	}

	registryClient := registry.NewClient(cfg.Settings.HTTPTimeout, cfg.Settings.DatabusKey)
	resolver := registry.NewResolver(registryClient, cfg.Settings.Endpoint, flags.allVersions)
	tokens := vault.New(cfg.Vault.AuthURL, cfg.Vault.ClientID, cfg.Vault.TokenFile, cfg.Settings.HTTPTimeout)
	manager := download.NewManager(cfg.Settings.HTTPTimeout, cfg.Settings.DatabusKey, tokens, cfg.Vault.Hosts)

	c := client.New(resolver, manager, nil, nil, progressHooks())
	if flags.postHook != "" {
		runner, err := hooks.LoadScript(flags.postHook)
		if err != nil {
			return err
		}
		c.PostHook = runner
	}

	results, err := c.Download(ctx, client.DownloadOptions{
		Identifiers: identifiers,
		Dir:         flags.localDir,
		Validation:  validation,
		Progress:    true,
		NoColor:     noColor(),
		ConvertTo:   convertTo,
		ConvertFrom: convertFrom,
	})
	printDownloadSummary(results)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	return nil
}

// applyDownloadFlags overlays the command flags onto the loaded config.
func applyDownloadFlags(cfg *config.Config, flags downloadFlags) {
	if flags.endpoint != "" {
		cfg.Settings.Endpoint = flags.endpoint
	}
	if flags.databusKey != "" {
		cfg.Settings.DatabusKey = flags.databusKey
	}
	if flags.checksum != "" {
		cfg.Settings.ChecksumMode = flags.checksum
	}
	if flags.tokenFile != "" {
		cfg.Vault.TokenFile = flags.tokenFile
	}
	if flags.authURL != "" {
		cfg.Vault.AuthURL = flags.authURL
	}
	if flags.clientID != "" {
		cfg.Vault.ClientID = flags.clientID
	}
}

func printDownloadSummary(results []model.DownloadResult) {
	if len(results) == 0 {
		return
	}
	var ok, skipped, failed int
	for _, res := range results {
		switch res.Status {
		case model.StatusSucceeded:
			ok++
		case model.StatusSkippedNotFound:
			skipped++
		default:
			failed++
		}
	}
	fmt.Printf("Downloaded %d file(s), %d skipped, %d failed\n", ok, skipped, failed)
}
