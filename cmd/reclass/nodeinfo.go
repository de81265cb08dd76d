package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opmodel/reclass"
	"github.com/opmodel/reclass/internal/renderer"
)

// newNodeinfoCmd creates the nodeinfo command, which renders exactly one
// node.
func newNodeinfoCmd() *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "nodeinfo <name>",
		Short: "Render a single node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodeinfo(cmd, args[0], format)
		},
	}
	c.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml or json")
	return c
}

func runNodeinfo(cmd *cobra.Command, name, format string) error {
	rc, err := reclass.New(resolvedConfig.NodesPath, resolvedConfig.ClassesPath, resolvedConfig)
	if err != nil {
		return err
	}

	res, err := rc.RenderNode(cmd.Context(), name)
	if err != nil {
		return err
	}

	encoded, err := encodeNode(res, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), encoded)
	return nil
}

func encodeNode(res *reclass.NodeResult, format string) (string, error) {
	switch format {
	case "json":
		node := renderer.NodeYAMLNode(res)
		var data any
		if err := node.Decode(&data); err != nil {
			return "", fmt.Errorf("decoding node tree: %w", err)
		}
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding node as json: %w", err)
		}
		return string(b), nil
	default:
		b, err := renderer.EncodeNode(res)
		if err != nil {
			return "", fmt.Errorf("encoding node as yaml: %w", err)
		}
		return string(b), nil
	}
}
