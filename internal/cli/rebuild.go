package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chazu/kerf/pkg/document"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/chazu/kerf/pkg/params"
	"github.com/chazu/kerf/pkg/rebuild"
	"github.com/chazu/kerf/pkg/solver"
	"github.com/chazu/kerf/pkg/stl"
)

// newRebuildCommand evaluates a studio document once and reports per-op
// outcomes.
func newRebuildCommand() *cobra.Command {
	var stlPath string

	cmd := &cobra.Command{
		Use:   "rebuild <studio.yaml>",
		Short: "Evaluate the feature timeline of a studio document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			st, err := runRebuild(args[0], logger)
			if err != nil {
				return err
			}
			report(cmd.OutOrStdout(), st)

			if stlPath != "" {
				final, ok := st.Final()
				if !ok {
					return fmt.Errorf("no geometry to export")
				}
				if err := stl.WriteFile(stlPath, final.Mesh); err != nil {
					return err
				}
				logger.Info("mesh exported", "path", stlPath, "triangles", final.Mesh.TriangleCount())
			}

			if len(st.Errors) > 0 {
				return fmt.Errorf("%d of %d operations failed", len(st.Errors), st.Graph.Len())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stlPath, "stl", "", "Export the final mesh as binary STL to this path")
	return cmd
}

// loadStudio loads a document and resolves its parameter table.
func loadStudio(path string) (graph.Graph, *params.Env, error) {
	doc, err := document.Load(path)
	if err != nil {
		return graph.Graph{}, nil, err
	}
	g, table, err := doc.Build()
	if err != nil {
		return graph.Graph{}, nil, err
	}
	env, err := params.Resolve(table)
	if err != nil {
		return graph.Graph{}, nil, err
	}
	return g, env, nil
}

// runRebuild loads and evaluates a studio document with the sdfx backend.
func runRebuild(path string, logger *slog.Logger) (*rebuild.Studio, error) {
	g, env, err := loadStudio(path)
	if err != nil {
		return nil, err
	}
	return rebuild.Rebuild(g, env, sdfx.New(), solver.NewNull(), logger)
}

// report prints one line per operation in evaluation order.
func report(w io.Writer, st *rebuild.Studio) {
	for _, id := range st.Order {
		o, ok := st.Graph.Get(id)
		if !ok {
			continue
		}
		switch {
		case o.Suppressed:
			fmt.Fprintf(w, "  -  %-10s %-20s suppressed\n", o.Kind, o.Name)
		case st.Errors[id] != "":
			fmt.Fprintf(w, "FAIL %-10s %-20s %s\n", o.Kind, o.Name, st.Errors[id])
		case st.Results[id] != nil:
			r := st.Results[id]
			fmt.Fprintf(w, " ok  %-10s %-20s %d faces, %d triangles\n",
				o.Kind, o.Name, len(r.Topology.Faces), r.Mesh.TriangleCount())
		default:
			fmt.Fprintf(w, " ok  %-10s %-20s\n", o.Kind, o.Name)
		}
	}
}
