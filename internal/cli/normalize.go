package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modlink/pkg/history"
	"github.com/matzehuels/modlink/pkg/manifest"
	"github.com/matzehuels/modlink/pkg/normalize"
)

// normalizeOpts holds the command-line flags for the normalize command.
type normalizeOpts struct {
	dryRun bool // report changes without writing files
	review bool // interactively review pending changes (implies dry-run)
}

// normalizeCommand creates the normalize command, the tool's main entry
// point: one idempotent pass over every manifest in the project.
func (c *CLI) normalizeCommand() *cobra.Command {
	var opts normalizeOpts

	cmd := &cobra.Command{
		Use:   "normalize [project-root]",
		Short: "Normalize all manifest references in a project",
		Long: `Normalize the reference list of every module manifest under the project root.

Name references are converted to stable identifier references, duplicates and
dangling references are removed, lists are sorted by display name, and every
manifest (except the common module itself) gains a reference to the common
module. Manifests are rewritten only when their canonical form differs from
what is on disk, so a second run performs zero writes.

Examples:
  modlink normalize                  # normalize the current directory
  modlink normalize ./game           # normalize another project root
  modlink normalize --dry-run        # report changes without writing
  modlink normalize --review         # interactively inspect pending changes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return c.runNormalize(cmd.Context(), root, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report changes without writing files")
	cmd.Flags().BoolVar(&opts.review, "review", false, "interactively review pending changes (implies --dry-run)")

	return cmd
}

// runNormalize executes one normalization run and reports the result.
func (c *CLI) runNormalize(ctx context.Context, root string, opts normalizeOpts) error {
	logger := loggerFromContext(ctx)

	p, err := c.openProject(root)
	if err != nil {
		return fmt.Errorf("open project %s: %w", root, err)
	}

	runner := p.newRunner(logger)
	if opts.dryRun || opts.review {
		runner.DryRun()
	}

	spinner := newSpinner(ctx, "Normalizing references...")
	spinner.Start()

	rep, err := runner.Run(ctx)
	if err != nil {
		spinner.StopWithError("Normalization failed")
		return err
	}
	spinner.Stop()

	c.printReport(rep)

	if err := c.recordHistory(ctx, p, rep); err != nil {
		logger.Warnf("history recording failed: %v", err)
	}

	if opts.review && len(rep.Changes) > 0 {
		return runReview(rep.Changes)
	}
	return nil
}

// printReport prints the run summary.
func (c *CLI) printReport(rep *normalize.Report) {
	if rep.CommonPath == "" {
		printWarning("No common module found; nothing to normalize")
		return
	}

	verb := "Normalized"
	if rep.DryRun {
		verb = "Checked"
	}
	printSuccess("%s %d manifests in %s", verb, rep.Scanned, rep.Duration.Round(time.Millisecond))
	printKeyValue("Common", manifest.ModuleName(rep.CommonPath))
	printDetail("%d changed · %d unchanged · %d references dropped · %d converted",
		rep.Changed, rep.Unchanged, rep.Dropped, rep.Converted)

	for _, ch := range rep.Changes {
		printFile(ch.Path)
	}
	for _, f := range rep.Failures {
		printWarning("%s: %s", f.Path, f.Error)
	}
}

// recordHistory appends the run to the configured history store, if any.
func (c *CLI) recordHistory(ctx context.Context, p *project, rep *normalize.Report) error {
	store, err := p.newHistoryStore(ctx)
	if err != nil || store == nil {
		return err
	}
	defer store.Close(ctx)
	return store.Append(ctx, history.FromReport(rep))
}
