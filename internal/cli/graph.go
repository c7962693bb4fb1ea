package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modlink/pkg/graph"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output string // output file path (stdout for dot if empty)
	format string // dot, svg, or png
}

// graphCommand creates the graph command for exporting the manifest graph.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph [project-root]",
		Short: "Export the project's module reference graph",
		Long: `Export the module reference graph as DOT, SVG, or PNG.

Each node is a manifest; each edge a resolving reference. The common module
is highlighted. References that do not resolve are omitted, matching what
normalization would drop.

Examples:
  modlink graph                        # DOT to stdout
  modlink graph -f svg -o modules.svg  # rendered SVG
  modlink graph ./game -f png -o deps.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return c.runGraph(cmd.Context(), root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout for dot if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "dot", "output format: dot, svg, png")

	return cmd
}

// runGraph scans the project and writes the graph in the requested format.
func (c *CLI) runGraph(ctx context.Context, root string, opts graphOpts) error {
	p, err := c.openProject(root)
	if err != nil {
		return fmt.Errorf("open project %s: %w", root, err)
	}

	snap, err := p.idx.Scan(ctx)
	if err != nil {
		return err
	}

	commonPath := ""
	for _, path := range snap.Paths() {
		if filepath.Base(path) == p.cfg.CommonModule {
			commonPath = path
			break
		}
	}

	g := graph.Build(snap, commonPath)
	dot := graph.ToDOT(g)

	var data []byte
	switch strings.ToLower(opts.format) {
	case "dot":
		data = []byte(dot)
	case "svg":
		if data, err = graph.RenderSVG(ctx, dot); err != nil {
			return err
		}
	case "png":
		if data, err = graph.RenderPNG(ctx, dot); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q (want dot, svg, or png)", opts.format)
	}

	if opts.output == "" {
		if opts.format != "dot" {
			return fmt.Errorf("binary format %s requires --output", opts.format)
		}
		fmt.Print(dot)
		return nil
	}

	if err := os.WriteFile(opts.output, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Exported %d modules, %d references", len(g.Nodes), len(g.Edges))
	printFile(opts.output)
	return nil
}
