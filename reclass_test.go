package reclass_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/reclass"
	"github.com/opmodel/reclass/internal/rconfig"
	"github.com/opmodel/reclass/internal/rerrors"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func newFixture(t *testing.T, classes, nodes map[string]string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	classesPath := filepath.Join(dir, "classes")
	nodesPath := filepath.Join(dir, "nodes")
	require.NoError(t, os.MkdirAll(classesPath, 0o755))
	require.NoError(t, os.MkdirAll(nodesPath, 0o755))
	writeFiles(t, classesPath, classes)
	writeFiles(t, nodesPath, nodes)
	return nodesPath, classesPath
}

// Scenario 1: basic include & merge.
func TestScenarioBasicIncludeAndMerge(t *testing.T) {
	nodesPath, classesPath := newFixture(t,
		map[string]string{
			"a.yml": "parameters:\n  x: 1\n",
			"b.yml": "classes: [a]\nparameters:\n  y: 2\n",
		},
		map[string]string{
			"n.yml": "classes: [b]\n",
		})

	rc, err := reclass.New(nodesPath, classesPath, rconfig.Config{})
	require.NoError(t, err)

	res, err := rc.RenderNode(context.Background(), "n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Classes)

	x, _ := res.Parameters.Map.Get("x")
	assert.Equal(t, int64(1), x.Int)
	y, _ := res.Parameters.Map.Get("y")
	assert.Equal(t, int64(2), y.Int)
}

// Scenario 2: nested reference.
func TestScenarioNestedReference(t *testing.T) {
	nodesPath, classesPath := newFixture(t, nil, map[string]string{
		"n.yml": "parameters:\n  a: 1\n  b: \"${a}\"\n  c: \"v${b}\"\n",
	})

	rc, err := reclass.New(nodesPath, classesPath, rconfig.Config{})
	require.NoError(t, err)

	res, err := rc.RenderNode(context.Background(), "n")
	require.NoError(t, err)

	b, _ := res.Parameters.Map.Get("b")
	assert.Equal(t, int64(1), b.Int)
	c, _ := res.Parameters.Map.Get("c")
	assert.Equal(t, "v1", c.Str)
}

// Scenario 3: default value.
func TestScenarioDefaultValue(t *testing.T) {
	nodesPath, classesPath := newFixture(t, nil, map[string]string{
		"n.yml": "parameters:\n" +
			"  method: helm\n" +
			"  pick: \"${cfg:${method::jsonnet}}\"\n" +
			"  cfg:\n" +
			"    helm: H\n" +
			"    jsonnet: J\n",
	})

	rc, err := reclass.New(nodesPath, classesPath, rconfig.Config{})
	require.NoError(t, err)

	res, err := rc.RenderNode(context.Background(), "n")
	require.NoError(t, err)
	pick, _ := res.Parameters.Map.Get("pick")
	assert.Equal(t, "H", pick.Str)
}

func TestScenarioDefaultValueFallsBackWhenMethodMissing(t *testing.T) {
	nodesPath, classesPath := newFixture(t, nil, map[string]string{
		"n.yml": "parameters:\n" +
			"  pick: \"${cfg:${method::jsonnet}}\"\n" +
			"  cfg:\n" +
			"    helm: H\n" +
			"    jsonnet: J\n",
	})

	rc, err := reclass.New(nodesPath, classesPath, rconfig.Config{})
	require.NoError(t, err)

	res, err := rc.RenderNode(context.Background(), "n")
	require.NoError(t, err)
	pick, _ := res.Parameters.Map.Get("pick")
	assert.Equal(t, "J", pick.Str)
}

// Scenario 4: constant violation.
func TestScenarioConstantViolation(t *testing.T) {
	nodesPath, classesPath := newFixture(t,
		map[string]string{
			"c.yml": "parameters:\n  =k: 1\n",
		},
		map[string]string{
			"n.yml": "classes: [c]\nparameters:\n  k: 2\n",
		})

	rc, err := reclass.New(nodesPath, classesPath, rconfig.Config{})
	require.NoError(t, err)

	_, err = rc.RenderNode(context.Background(), "n")
	require.Error(t, err)
	assert.ErrorIs(t, err, rerrors.ErrConstantViolation)
}

// Scenario 5: overwrite vs merge.
func TestScenarioOverwriteVsMerge(t *testing.T) {
	nodesPath, classesPath := newFixture(t,
		map[string]string{
			"l.yml": "parameters:\n  l: [1, 2]\n",
		},
		map[string]string{
			"merged.yml":    "classes: [l]\nparameters:\n  l: [3]\n",
			"overwrite.yml": "classes: [l]\nparameters:\n  ~l: [3]\n",
		})

	rc, err := reclass.New(nodesPath, classesPath, rconfig.Config{})
	require.NoError(t, err)

	merged, err := rc.RenderNode(context.Background(), "merged")
	require.NoError(t, err)
	l, _ := merged.Parameters.Map.Get("l")
	require.Len(t, l.Seq, 3)
	assert.Equal(t, int64(1), l.Seq[0].Int)
	assert.Equal(t, int64(2), l.Seq[1].Int)
	assert.Equal(t, int64(3), l.Seq[2].Int)

	overwritten, err := rc.RenderNode(context.Background(), "overwrite")
	require.NoError(t, err)
	lo, _ := overwritten.Parameters.Map.Get("l")
	require.Len(t, lo.Seq, 1)
	assert.Equal(t, int64(3), lo.Seq[0].Int)
}

// Scenario 6: reference in class name.
func TestScenarioReferenceInClassName(t *testing.T) {
	nodesPath, classesPath := newFixture(t,
		map[string]string{
			"a.yml": "parameters:\n  ok: true\n",
		},
		map[string]string{
			"n.yml": "classes: [\"${variant}\"]\nparameters:\n  variant: a\n",
		})

	rc, err := reclass.New(nodesPath, classesPath, rconfig.Config{})
	require.NoError(t, err)

	res, err := rc.RenderNode(context.Background(), "n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Classes)
	ok, _ := res.Parameters.Map.Get("ok")
	assert.Equal(t, true, ok.Bool)
}

// Scenario 7: compose_node_name.
func TestScenarioComposeNodeName(t *testing.T) {
	nodesPath, classesPath := newFixture(t, nil, map[string]string{
		"path/to/the.node.yml": "parameters:\n  x: 1\n",
	})

	rc, err := reclass.New(nodesPath, classesPath, rconfig.Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{"the.node"}, rc.NodeNames())

	rcComposed, err := reclass.New(nodesPath, classesPath, rconfig.Config{
		ComposeNodeName: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"path.to.the.node"}, rcComposed.NodeNames())

	rcLiteralDots, err := reclass.New(nodesPath, classesPath, rconfig.Config{
		ComposeNodeName: true,
		CompatFlags: map[rconfig.CompatFlag]bool{
			rconfig.ComposeNodeNameLiteralDots: true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"path.to.the.node"}, rcLiteralDots.NodeNames())
}

// RenderInventory over a small multi-node tree: sorted names, every node
// present, no residual failures.
func TestRenderInventoryEndToEnd(t *testing.T) {
	nodesPath, classesPath := newFixture(t,
		map[string]string{
			"base.yml": "parameters:\n  shared: 1\n",
		},
		map[string]string{
			"zeta.yml":  "classes: [base]\nparameters:\n  x: 1\n",
			"alpha.yml": "classes: [base]\nparameters:\n  x: 2\n",
		})

	rc, err := reclass.New(nodesPath, classesPath, rconfig.Config{})
	require.NoError(t, err)

	inv, err := rc.RenderInventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, inv.Names)
	assert.Empty(t, inv.Failures)

	for _, name := range inv.Names {
		shared, _ := inv.Nodes[name].Parameters.Map.Get("shared")
		assert.Equal(t, int64(1), shared.Int)
	}
}

func TestSetThreadCountOverridesConfig(t *testing.T) {
	nodesPath, classesPath := newFixture(t, nil, map[string]string{
		"n.yml": "parameters:\n  x: 1\n",
	})

	reclass.SetThreadCount(1)
	defer reclass.SetThreadCount(0)

	rc, err := reclass.New(nodesPath, classesPath, rconfig.Config{Threads: 8})
	require.NoError(t, err)

	inv, err := rc.RenderInventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"n"}, inv.Names)
}
