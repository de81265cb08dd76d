package rvalue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/opmodel/reclass/internal/rvalue"
)

func decode(t *testing.T, doc string) *rvalue.Value {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &node))
	v, err := rvalue.FromYAMLNode(&node, "test.yml")
	require.NoError(t, err)
	return v
}

func TestFromYAMLNodeScalars(t *testing.T) {
	assert.Equal(t, rvalue.KindInt, decode(t, "1").Kind)
	assert.Equal(t, rvalue.KindFloat, decode(t, "1.5").Kind)
	assert.Equal(t, rvalue.KindBool, decode(t, "true").Kind)
	assert.Equal(t, rvalue.KindNull, decode(t, "null").Kind)
	assert.Equal(t, rvalue.KindNull, decode(t, "~").Kind)
	assert.Equal(t, rvalue.KindString, decode(t, "plain text").Kind)
}

func TestFromYAMLNodeMappingPreservesOrder(t *testing.T) {
	v := decode(t, "y: 1\nx: 2\n")
	require.Equal(t, rvalue.KindMapping, v.Kind)
	assert.Equal(t, []string{"y", "x"}, v.Map.Keys())
}

func TestFromYAMLNodeStripsKeyPrefixes(t *testing.T) {
	v := decode(t, "~over: 1\n=const: 2\nplain: 3\n")
	over, _ := v.Map.Get("over")
	assert.True(t, over.Overwrite)
	cst, _ := v.Map.Get("const")
	assert.True(t, cst.Constant)
	plain, _ := v.Map.Get("plain")
	assert.False(t, plain.Overwrite)
	assert.False(t, plain.Constant)
}

func TestFromYAMLNodeDetectsReference(t *testing.T) {
	v := decode(t, `"${a:b}"`)
	require.Equal(t, rvalue.KindReference, v.Kind)
	assert.Equal(t, "${a:b}", v.Ref.Source)
}

func TestFromYAMLNodeEmbeddedReferenceInLiteral(t *testing.T) {
	v := decode(t, `"v${b}"`)
	require.Equal(t, rvalue.KindReference, v.Kind)
	assert.Equal(t, "v${b}", v.Ref.Source)
}

func TestFromYAMLNodeEscapedReferenceStaysPlainString(t *testing.T) {
	v := decode(t, `'\${not a ref}'`)
	require.Equal(t, rvalue.KindString, v.Kind)
	assert.Equal(t, "${not a ref}", v.Str)
}

func TestFromYAMLNodeSequence(t *testing.T) {
	v := decode(t, "- 1\n- 2\n- 3\n")
	require.Equal(t, rvalue.KindSequence, v.Kind)
	require.Len(t, v.Seq, 3)
	assert.Equal(t, int64(2), v.Seq[1].Int)
}

func TestParseFlowDefaultScalar(t *testing.T) {
	v, err := rvalue.ParseFlowDefault("jsonnet")
	require.NoError(t, err)
	assert.Equal(t, rvalue.KindString, v.Kind)
	assert.Equal(t, "jsonnet", v.Str)
}

func TestParseFlowDefaultMapping(t *testing.T) {
	v, err := rvalue.ParseFlowDefault("{a: 1, b: 2}")
	require.NoError(t, err)
	require.Equal(t, rvalue.KindMapping, v.Kind)
	a, _ := v.Map.Get("a")
	assert.Equal(t, int64(1), a.Int)
}
