package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/kerf/pkg/op"
)

// newOrderCommand prints the evaluation order of a studio document
// without evaluating anything.
func newOrderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "order <studio.yaml>",
		Short: "Print the dependency-resolved evaluation order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := loadStudio(args[0])
			if err != nil {
				return err
			}
			order, cycle := g.Order()
			if cycle != nil {
				return cycle
			}
			for i, id := range order {
				o, ok := g.Get(id)
				if !ok {
					continue
				}
				line := fmt.Sprintf("%2d. %-10s %s", i+1, o.Kind, o.Name)
				if deps := op.Dependencies(o); len(deps) > 0 {
					names := make([]string, 0, len(deps))
					for _, d := range deps {
						if dep, ok := g.Get(d); ok {
							names = append(names, dep.Name)
						} else {
							names = append(names, d.Short())
						}
					}
					line += "  <- " + strings.Join(names, ", ")
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}
