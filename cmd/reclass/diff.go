package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opmodel/reclass"
	"github.com/opmodel/reclass/internal/rdiff"
	"github.com/opmodel/reclass/internal/renderer"
)

// newDiffCmd creates the diff command (spec section 4.11): render a node
// and compare it against a previously captured rendering. Purely a CLI
// convenience over rdiff; it never feeds back into rendering.
func newDiffCmd() *cobra.Command {
	var against string
	var color bool

	c := &cobra.Command{
		Use:   "diff <name> --against <file>",
		Short: "Diff a rendered node against a captured YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], against, color)
		},
	}
	c.Flags().StringVar(&against, "against", "", "path to a previously rendered YAML file to compare against")
	c.Flags().BoolVar(&color, "color", false, "use colored/table diff styling")
	_ = c.MarkFlagRequired("against")
	return c
}

func runDiff(cmd *cobra.Command, name, against string, color bool) error {
	rc, err := reclass.New(resolvedConfig.NodesPath, resolvedConfig.ClassesPath, resolvedConfig)
	if err != nil {
		return err
	}

	res, err := rc.RenderNode(cmd.Context(), name)
	if err != nil {
		return err
	}
	after, err := renderer.EncodeNode(res)
	if err != nil {
		return fmt.Errorf("encoding rendered node: %w", err)
	}

	before, err := os.ReadFile(against)
	if err != nil {
		return fmt.Errorf("reading %s: %w", against, err)
	}

	report, err := rdiff.Render(before, after, color)
	if err != nil {
		return err
	}
	if report == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "no differences")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), report)
	return nil
}
