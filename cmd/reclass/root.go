// Package main is the entry point for the reclass CLI, the thin
// "embedding layer" consumer referenced in spec.md section 1: it wires
// flags into a Config, builds a reclass.Reclass, and prints its
// RenderInventory/RenderNode output. It holds no resolver logic of its
// own.
package main

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/reclass/internal/rconfig"
	"github.com/opmodel/reclass/internal/rlog"
)

var (
	flagNodesPath   string
	flagClassesPath string
	flagConfig      string
	flagThreads     int
	flagVerbose     bool

	resolvedConfig rconfig.Config
)

// newRootCmd creates the root command for the reclass CLI.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reclass",
		Short:         "Render a hierarchical YAML class/node inventory",
		Long:          `reclass resolves a directory tree of YAML classes and nodes into per-node rendered parameters.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	root.PersistentFlags().StringVar(&flagNodesPath, "nodes-path", "nodes", "path to the nodes directory (env: RECLASS_NODES_PATH)")
	root.PersistentFlags().StringVar(&flagClassesPath, "classes-path", "classes", "path to the classes directory (env: RECLASS_CLASSES_PATH)")
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to reclass-config.yml")
	root.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count for parallel rendering (0 = GOMAXPROCS)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose diagnostics")

	root.AddCommand(newInventoryCmd())
	root.AddCommand(newNodeinfoCmd())
	root.AddCommand(newDiffCmd())

	return root
}

// initializeGlobals loads reclass-config.yml (if given), layers the CLI
// flags the user actually set on top per rconfig.Config.Merge's
// "programmatic values override file values" rule, and sets up logging.
// An unset flag (still at its default) must not clobber a value the
// config file supplied, so only flags cmd.Flags().Changed reports are
// folded into override.
func initializeGlobals(cmd *cobra.Command) error {
	rlog.SetupLogging(flagVerbose)

	loaded, err := rconfig.NewLoader().Load(flagConfig)
	if err != nil {
		return err
	}

	var override rconfig.Config
	flags := cmd.Flags()
	if flags.Changed("nodes-path") {
		override.NodesPath = flagNodesPath
	}
	if flags.Changed("classes-path") {
		override.ClassesPath = flagClassesPath
	}
	if flags.Changed("threads") {
		override.Threads = flagThreads
	}
	if flagVerbose {
		override.VerboseWarnings = true
	}
	resolvedConfig = loaded.Merge(override)

	if resolvedConfig.NodesPath == "" {
		resolvedConfig.NodesPath = flagNodesPath
	}
	if resolvedConfig.ClassesPath == "" {
		resolvedConfig.ClassesPath = flagClassesPath
	}
	return nil
}
