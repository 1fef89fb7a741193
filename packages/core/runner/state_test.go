package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_SetGet(t *testing.T) {
	s := NewState()
	s.Set("b", 2)
	s.Set("a", 1)

	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"a", "b"}, s.Keys())

	s.Delete("a")
	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	s := NewState()
	s.Set("sha", "dce7f33d")

	v, err := Lookup[string](s, "sha")
	require.NoError(t, err)
	assert.Equal(t, "dce7f33d", v)

	_, err = Lookup[string](s, "missing")
	var prereq *PrerequisiteError
	require.ErrorAs(t, err, &prereq)
	assert.Equal(t, "missing", prereq.Key)
	assert.Equal(t, `prerequisite "missing" is not available`, err.Error())

	_, err = Lookup[int](s, "sha")
	require.ErrorAs(t, err, &prereq)
	assert.Contains(t, err.Error(), "holds string, not int")
}

func TestRemember(t *testing.T) {
	s := NewState()
	calls := 0
	fetch := func() (string, error) {
		calls++
		return "value", nil
	}

	v, err := Remember(s, "key", fetch)
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	v, err = Remember(s, "key", fetch)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 1, calls)
}

func TestRemember_FailedFetchStoresNothing(t *testing.T) {
	s := NewState()

	_, err := Remember(s, "key", func() (int, error) { return 0, errors.New("boom") })

	assert.EqualError(t, err, "boom")
	_, ok := s.Get("key")
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
	assert.Equal(t, KindPanic, Classify(&PanicError{Value: "x"}))
	assert.Equal(t, KindError, Classify(errors.New("x")))
}
