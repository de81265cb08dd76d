package rlist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opmodel/reclass/internal/rlist"
)

func TestUniqueListDeduplicatesInOrder(t *testing.T) {
	l := rlist.NewUniqueList([]string{"a", "b", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, l.Items())
}

func TestUniqueListMergeAppendsNewOnly(t *testing.T) {
	a := rlist.NewUniqueList([]string{"b", "a"})
	b := rlist.NewUniqueList([]string{"b"})
	a.Merge(b)
	assert.Equal(t, []string{"b", "a"}, a.Items())
}

func TestUniqueListMergeConcatenatesDistinct(t *testing.T) {
	a := rlist.NewUniqueList([]string{"a"})
	b := rlist.NewUniqueList([]string{"b"})
	a.Merge(b)
	assert.Equal(t, []string{"a", "b"}, a.Items())
}

func TestRemovableListPlainAppend(t *testing.T) {
	l := rlist.NewRemovableList([]string{"a", "b", "c", "d", "b", "~d"})
	assert.Equal(t, []string{"a", "b", "c"}, l.Items())
}

func TestRemovableListRemoveNonexisting(t *testing.T) {
	l := rlist.NewRemovableList([]string{"a", "b", "c", "~d"})
	assert.Equal(t, []string{"a", "b", "c"}, l.Items())
}

func TestRemovableListRemoveExisting(t *testing.T) {
	l := rlist.NewRemovableList([]string{"a", "b", "c", "~b"})
	assert.Equal(t, []string{"a", "c"}, l.Items())
}

func TestRemovableListNegateThenAdd(t *testing.T) {
	l := rlist.NewRemovableList([]string{"a", "b", "c", "~d", "d"})
	assert.Equal(t, []string{"a", "b", "c"}, l.Items())
}

func TestRemovableListMergeAddAndRemove(t *testing.T) {
	a := rlist.NewRemovableList([]string{"a", "b", "c"})
	b := rlist.NewRemovableList([]string{"d", "~c"})
	a.Merge(b)
	assert.Equal(t, []string{"a", "b", "d"}, a.Items())
}

func TestRemovableListMergeAddApplyRemoval(t *testing.T) {
	a := rlist.NewRemovableList([]string{"a", "b", "c", "~d"})
	b := rlist.NewRemovableList([]string{"d"})
	a.Merge(b)
	assert.Equal(t, []string{"a", "b", "c"}, a.Items())
}
