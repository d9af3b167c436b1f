package app

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/covidliste/directory/internal/cmd/output"
	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
)

// runContext bounds a whole run and carries the app logger.
func (a *App) runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := logging.WithLogger(cmd.Context(), a.logger)
	return context.WithTimeout(ctx, constants.CommandTimeout)
}

// NewBuildCommand creates the build command.
func (a *App) NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "build",
		GroupID: "core",
		Short:   "Check every source and publish the volunteer list",
		Long: `Build fetches the roster and every membership source, reconciles them and,
when they agree, writes the public volunteer list and the avatars.

Any missing credential, failed fetch or disagreement between sources aborts
the build before anything is written.`,
		Example: `  directory build
  directory build --out site/volunteers.json --pictures site/pictures`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.Directory()
			if err != nil {
				return err
			}

			ctx, cancel := a.runContext(cmd)
			defer cancel()

			result, err := d.Build(ctx)
			if err != nil {
				return err
			}

			cmd.Printf("Published %d volunteers to %s (%d anonymized, %d left out, %d pictures) in %s\n",
				result.Publish.Published,
				result.Publish.Path,
				result.Publish.Anonymized,
				result.Publish.Rejected,
				result.Publish.Pictures,
				result.Duration.Round(time.Millisecond),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&a.config.Output, "out", a.config.Output, "path of the published JSON document")
	cmd.Flags().StringVar(&a.config.PicturesDir, "pictures", a.config.PicturesDir, "directory receiving the avatars")
	cmd.Flags().DurationVar(&a.config.Timeout, "timeout", a.config.Timeout, "timeout of every outbound call")
	cmd.Flags().IntVar(&a.config.Workers, "workers", a.config.Workers, "concurrent chat channel lookups")

	return cmd
}

// NewCheckCommand creates the check command.
func (a *App) NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "check",
		GroupID: "core",
		Short:   "Reconcile the sources without publishing",
		Long: `Check fetches the roster and every membership source and reports each
disagreement between them, or the completion of the volunteer records when
they agree. Nothing is written. The command fails when sources disagree.`,
		Example: `  directory check
  directory check -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.Directory()
			if err != nil {
				return err
			}

			ctx, cancel := a.runContext(cmd)
			defer cancel()

			result, checkErr := d.Check(ctx)
			if result == nil || result.Reconcile == nil {
				return checkErr
			}

			format := output.DetectFormat(a.config.Format)
			if err := output.FormatResult(cmd.OutOrStdout(), format, result.Reconcile); err != nil {
				return err
			}
			return checkErr
		},
	}
}

// NewIDCommand creates the id command.
func (a *App) NewIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "id <email>",
		Short: "Print the public id and avatar file derived from an email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, err := a.Policy()
			if err != nil {
				return err
			}

			id := pol.IDFunc()(args[0])
			cmd.Println(id)
			if a.config.Verbose {
				cmd.Println(people.AvatarFilename(id))
			}
			return nil
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("directory %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
