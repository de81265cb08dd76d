package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"

	"github.com/opmodel/reclass"
	"github.com/opmodel/reclass/internal/renderer"
	"github.com/opmodel/reclass/internal/rlog"
)

// newInventoryCmd creates the inventory command, which renders every
// node under nodes-path and emits the whole inventory.
func newInventoryCmd() *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "inventory",
		Short: "Render every node in the inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInventory(cmd, format)
		},
	}
	c.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml or json")
	return c
}

func runInventory(cmd *cobra.Command, format string) error {
	rc, err := reclass.New(resolvedConfig.NodesPath, resolvedConfig.ClassesPath, resolvedConfig)
	if err != nil {
		return err
	}

	inv, err := rc.RenderInventory(cmd.Context())
	if err != nil {
		names := make([]string, 0, len(inv.Failures))
		for name := range inv.Failures {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rlog.Error("node failed to render", "node", rlog.StyleNode.Render(name), "error", inv.Failures[name])
		}
		fmt.Fprintln(cmd.ErrOrStderr(), rlog.StyleFailure.Render(fmt.Sprintf("%d of %d nodes failed to render", len(names), len(names)+len(inv.Names))))
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), rlog.StyleSuccess.Render(fmt.Sprintf("rendered %d nodes", len(inv.Names))))
	}

	encoded, encErr := encodeInventory(inv, format)
	if encErr != nil {
		return encErr
	}
	fmt.Fprintln(cmd.OutOrStdout(), encoded)

	return err
}

// encodeInventory renders an Inventory's successful nodes as a single
// node-name-keyed document, in sorted node-name order (spec section 5),
// reusing renderer.NodeYAMLNode per node rather than handing the raw
// *rvalue.Value-bearing NodeResult to yaml.Marshal/json.Marshal, which
// have no tags to decode it with.
func encodeInventory(inv *reclass.Inventory, format string) (string, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range inv.Names {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			renderer.NodeYAMLNode(inv.Nodes[name]))
	}

	switch format {
	case "json":
		var data any
		if err := doc.Decode(&data); err != nil {
			return "", fmt.Errorf("decoding inventory tree: %w", err)
		}
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding inventory as json: %w", err)
		}
		return string(b), nil
	default:
		root := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{doc}}
		b, err := yaml.Marshal(root)
		if err != nil {
			return "", fmt.Errorf("encoding inventory as yaml: %w", err)
		}
		return string(b), nil
	}
}
