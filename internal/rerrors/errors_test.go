package rerrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/reclass/internal/rerrors"
)

func TestDetailErrorIsSentinel(t *testing.T) {
	err := rerrors.New(rerrors.ErrClassNotFound, "role.db not found")
	assert.True(t, errors.Is(err, rerrors.ErrClassNotFound))
	assert.False(t, errors.Is(err, rerrors.ErrClassCycle))
}

func TestDetailErrorWrapsCause(t *testing.T) {
	cause := errors.New("unexpected end of file")
	err := rerrors.Wrap(rerrors.ErrIOError, "reading nodes/a.yml", cause)

	assert.True(t, errors.Is(err, rerrors.ErrIOError))
	assert.True(t, errors.Is(err, cause))
}

func TestDetailErrorBuildersAreImmutable(t *testing.T) {
	base := rerrors.New(rerrors.ErrReferenceMissing, "no such path")
	withLoc := base.WithLocation("nodes/a.yml:3")
	withPath := withLoc.WithPath("a:b:c")
	withHint := withPath.WithHint("did you mean a:b:d?")

	require.Empty(t, base.Location)
	require.Empty(t, base.Path)
	require.Empty(t, base.Hint)

	assert.Equal(t, "nodes/a.yml:3", withHint.Location)
	assert.Equal(t, "a:b:c", withHint.Path)
	assert.Equal(t, "did you mean a:b:d?", withHint.Hint)
}

func TestDetailErrorMessageIncludesContext(t *testing.T) {
	err := rerrors.New(rerrors.ErrClassCycle, "cycle detected").
		WithContext("stack", "a -> b -> a")

	assert.Contains(t, err.Error(), "class inclusion cycle")
	assert.Contains(t, err.Error(), "cycle detected")
	assert.Contains(t, err.Error(), "stack=a -> b -> a")
}
