package rvalue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opmodel/reclass/internal/rvalue"
)

func TestScalarStringRendersCanonicalForm(t *testing.T) {
	assert.Equal(t, "True", rvalue.Bool(true).ScalarString())
	assert.Equal(t, "False", rvalue.Bool(false).ScalarString())
	assert.Equal(t, "1", rvalue.Int(1).ScalarString())
	assert.Equal(t, "", rvalue.Null().ScalarString())
	assert.Equal(t, "v1", rvalue.String("v1").ScalarString())
}

func TestMappingPreservesInsertionOrder(t *testing.T) {
	m := rvalue.NewMapping()
	m.Set("y", rvalue.Int(2))
	m.Set("x", rvalue.Int(1))
	m.Set("y", rvalue.Int(3)) // re-set must not move the key

	assert.Equal(t, []string{"y", "x"}, m.Keys())
	v, ok := m.Get("y")
	assert.True(t, ok)
	assert.Equal(t, int64(3), v.Int)
}

func TestMappingDeleteRemovesFromOrder(t *testing.T) {
	m := rvalue.NewMapping()
	m.Set("a", rvalue.Int(1))
	m.Set("b", rvalue.Int(2))
	m.Delete("a")

	assert.Equal(t, []string{"b"}, m.Keys())
	_, ok := m.Get("a")
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	m := rvalue.NewMapping()
	m.Set("a", rvalue.Int(1))
	v := rvalue.Wrap(m)

	clone := v.Clone()
	cm, _ := clone.Map.Get("a")
	cm.Int = 99

	orig, _ := m.Get("a")
	assert.Equal(t, int64(1), orig.Int)
}

func TestEqualIgnoresFlagsAndOrigin(t *testing.T) {
	a := rvalue.Int(1)
	a.Constant = true
	a.Origin = rvalue.Origin{File: "a.yml", Line: 2}

	b := rvalue.Int(1)

	assert.True(t, rvalue.Equal(a, b))
}

func TestEqualMappingOrderMatters(t *testing.T) {
	m1 := rvalue.NewMapping()
	m1.Set("a", rvalue.Int(1))
	m1.Set("b", rvalue.Int(2))

	m2 := rvalue.NewMapping()
	m2.Set("b", rvalue.Int(2))
	m2.Set("a", rvalue.Int(1))

	assert.False(t, m1.Equal(m2))
}

func TestEqualSequence(t *testing.T) {
	a := rvalue.Sequence([]*rvalue.Value{rvalue.Int(1), rvalue.Int(2)})
	b := rvalue.Sequence([]*rvalue.Value{rvalue.Int(1), rvalue.Int(2)})
	c := rvalue.Sequence([]*rvalue.Value{rvalue.Int(2), rvalue.Int(1)})

	assert.True(t, rvalue.Equal(a, b))
	assert.False(t, rvalue.Equal(a, c))
}
