package expand_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/reclass/internal/expand"
	"github.com/opmodel/reclass/internal/rconfig"
	"github.com/opmodel/reclass/internal/rerrors"
	"github.com/opmodel/reclass/internal/rindex"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func newExpander(t *testing.T, classes, nodes map[string]string) *expand.Expander {
	t.Helper()
	dir := t.TempDir()
	classesPath := filepath.Join(dir, "classes")
	nodesPath := filepath.Join(dir, "nodes")
	require.NoError(t, os.MkdirAll(classesPath, 0o755))
	require.NoError(t, os.MkdirAll(nodesPath, 0o755))
	writeFiles(t, classesPath, classes)
	writeFiles(t, nodesPath, nodes)

	cfg := rconfig.Default(nodesPath, classesPath)
	idx, err := rindex.Build(cfg)
	require.NoError(t, err)

	ex, err := expand.New(idx, cfg, nil)
	require.NoError(t, err)
	return ex
}

func TestExpandBasicIncludeAndMerge(t *testing.T) {
	ex := newExpander(t, map[string]string{
		"a.yml": "parameters:\n  x: 1\n",
		"b.yml": "classes: [a]\nparameters:\n  y: 2\n",
	}, map[string]string{
		"n.yml": "classes: [b]\n",
	})

	res, err := ex.ExpandNode("n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Classes)

	x, _ := res.Parameters.Map.Get("x")
	assert.Equal(t, int64(1), x.Int)
	y, _ := res.Parameters.Map.Get("y")
	assert.Equal(t, int64(2), y.Int)
}

func TestExpandConstantViolation(t *testing.T) {
	ex := newExpander(t, map[string]string{
		"c.yml": "parameters:\n  =k: 1\n",
	}, map[string]string{
		"n.yml": "classes: [c]\nparameters:\n  k: 2\n",
	})

	_, err := ex.ExpandNode("n")
	require.Error(t, err)
	assert.ErrorIs(t, err, rerrors.ErrConstantViolation)
}

func TestExpandOverwriteVsMerge(t *testing.T) {
	ex := newExpander(t, map[string]string{
		"l.yml": "parameters:\n  l: [1, 2]\n",
	}, map[string]string{
		"merge.yml":     "classes: [l]\nparameters:\n  l: [3]\n",
		"overwrite.yml": "classes: [l]\nparameters:\n  ~l: [3]\n",
	})

	merged, err := ex.ExpandNode("merge")
	require.NoError(t, err)
	l, _ := merged.Parameters.Map.Get("l")
	require.Len(t, l.Seq, 3)
	assert.Equal(t, int64(1), l.Seq[0].Int)
	assert.Equal(t, int64(2), l.Seq[1].Int)
	assert.Equal(t, int64(3), l.Seq[2].Int)

	overwritten, err := ex.ExpandNode("overwrite")
	require.NoError(t, err)
	lo, _ := overwritten.Parameters.Map.Get("l")
	require.Len(t, lo.Seq, 1)
	assert.Equal(t, int64(3), lo.Seq[0].Int)
}

func TestExpandReferenceInClassName(t *testing.T) {
	ex := newExpander(t, map[string]string{
		"a.yml": "parameters:\n  ok: true\n",
	}, map[string]string{
		"n.yml": "classes: [\"${variant}\"]\nparameters:\n  variant: a\n",
	})

	res, err := ex.ExpandNode("n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Classes)
	ok, _ := res.Parameters.Map.Get("ok")
	assert.Equal(t, true, ok.Bool)
}

func TestExpandClassCycleIsError(t *testing.T) {
	ex := newExpander(t, map[string]string{
		"a.yml": "classes: [b]\n",
		"b.yml": "classes: [a]\n",
	}, map[string]string{
		"n.yml": "classes: [a]\n",
	})

	_, err := ex.ExpandNode("n")
	require.Error(t, err)
	assert.ErrorIs(t, err, rerrors.ErrClassCycle)
}

func TestExpandDeduplicatesDiamondInclude(t *testing.T) {
	ex := newExpander(t, map[string]string{
		"base.yml": "parameters:\n  shared: 1\n",
		"a.yml":    "classes: [base]\nparameters:\n  a: 1\n",
		"b.yml":    "classes: [base]\nparameters:\n  b: 1\n",
	}, map[string]string{
		"n.yml": "classes: [a, b]\n",
	})

	res, err := ex.ExpandNode("n")
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "a", "b"}, res.Classes)
}

func TestExpandMissingClassFailsByDefault(t *testing.T) {
	ex := newExpander(t, map[string]string{}, map[string]string{
		"n.yml": "classes: [missing]\n",
	})

	_, err := ex.ExpandNode("n")
	require.Error(t, err)
	assert.ErrorIs(t, err, rerrors.ErrClassNotFound)
}

func TestExpandMissingClassSuppressedByConfig(t *testing.T) {
	dir := t.TempDir()
	nodesPath := filepath.Join(dir, "nodes")
	classesPath := filepath.Join(dir, "classes")
	writeFiles(t, nodesPath, map[string]string{"n.yml": "classes: [missing]\n"})
	require.NoError(t, os.MkdirAll(classesPath, 0o755))

	cfg := rconfig.Default(nodesPath, classesPath)
	cfg.IgnoreClassNotfound = true
	idx, err := rindex.Build(cfg)
	require.NoError(t, err)
	ex, err := expand.New(idx, cfg, nil)
	require.NoError(t, err)

	res, err := ex.ExpandNode("n")
	require.NoError(t, err)
	assert.Empty(t, res.Classes)
}

func TestExpandApplicationsRemovalPrefix(t *testing.T) {
	ex := newExpander(t, map[string]string{}, map[string]string{
		"n.yml": "applications: [web, db, \"~web\"]\n",
	})

	res, err := ex.ExpandNode("n")
	require.NoError(t, err)
	assert.Equal(t, []string{"db"}, res.Applications)
}

func TestExpandDefaultEnvironmentIsBase(t *testing.T) {
	ex := newExpander(t, map[string]string{}, map[string]string{
		"n.yml": "parameters:\n  x: 1\n",
	})

	res, err := ex.ExpandNode("n")
	require.NoError(t, err)
	assert.Equal(t, "base", res.Environment)
}
