package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbpedia/databusclient/pkg/client"
	"github.com/dbpedia/databusclient/pkg/deploy"
)

type deployFlags struct {
	versionID   string
	title       string
	abstract    string
	description string
	license     string
	apiKey      string
	verifyParts bool

	attribution string
	derivedFrom string

	groupTitle       string
	groupAbstract    string
	groupDescription string
}

// NewDeployCmd creates the deploy command.
func NewDeployCmd() *cobra.Command {
	var flags deployFlags

	cmd := &cobra.Command{
		Use:   "deploy DISTRIBUTION...",
		Short: "Deploy a dataset version to the Databus",
		Long: `Deploy a dataset version with the provided metadata and distributions.

Each distribution argument has the form

  URL|key=value_..|fileext|compression|sha256sum:contentlength

where everything after the URL is optional. Content variants are key=value
pairs separated by underscores; file extension and compression are inferred
from the URL when omitted; missing sha256sum and length are computed by
downloading the file before deployment.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.versionID, "versionid", "", "Target version identifier of the form https://databus.dbpedia.org/$ACCOUNT/$GROUP/$ARTIFACT/$VERSION")
	cmd.Flags().StringVar(&flags.title, "title", "", "Dataset title")
	cmd.Flags().StringVar(&flags.abstract, "abstract", "", "Dataset abstract, max 200 chars")
	cmd.Flags().StringVar(&flags.description, "description", "", "Dataset description")
	cmd.Flags().StringVar(&flags.license, "license", "", "License URI (see dalicc.net)")
	cmd.Flags().StringVar(&flags.apiKey, "apikey", "", "Databus API key (defaults to config databus_key)")
	cmd.Flags().BoolVar(&flags.verifyParts, "verify-parts", false, "Let the Databus re-verify checksums and content lengths of the parts")
	cmd.Flags().StringVar(&flags.attribution, "attribution", "", "Attribution note recorded on the version")
	cmd.Flags().StringVar(&flags.derivedFrom, "derived-from", "", "Source the version was derived from")
	cmd.Flags().StringVar(&flags.groupTitle, "group-title", "", "Group title (group metadata is published only when title, abstract and description are all set)")
	cmd.Flags().StringVar(&flags.groupAbstract, "group-abstract", "", "Group abstract")
	cmd.Flags().StringVar(&flags.groupDescription, "group-description", "", "Group description")

	for _, name := range []string{"versionid", "title", "abstract", "description", "license"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runDeploy(ctx context.Context, args []string, flags deployFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	apiKey := cfg.Settings.DatabusKey
	if flags.apiKey != "" {
		apiKey = flags.apiKey
	}

	distributions := make([]deploy.Distribution, 0, len(args))
	for _, arg := range args {
		dist, err := deploy.ParseDistributionString(arg)
		if err != nil {
			return fmt.Errorf("invalid distribution %q: %w", arg, err)
		}
		distributions = append(distributions, dist)
	}

	publisher := deploy.NewPublisher(cfg.Settings.HTTPTimeout, apiKey, flags.verifyParts, deploy.LogLevelDebug)
	c := client.New(nil, nil, publisher, nil, progressHooks())

	err = c.Deploy(ctx, client.DeployOptions{
		VersionID:     flags.versionID,
		Title:         flags.title,
		Abstract:      flags.abstract,
		Description:   flags.description,
		License:       flags.license,
		Distributions: distributions,
		Dataset: deploy.DatasetOptions{
			Attribution:      flags.attribution,
			DerivedFrom:      flags.derivedFrom,
			GroupTitle:       flags.groupTitle,
			GroupAbstract:    flags.groupAbstract,
			GroupDescription: flags.groupDescription,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to deploy: %w", err)
	}
	return nil
}
