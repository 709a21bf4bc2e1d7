package caster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCast(t *testing.T) {
	assert.Equal(t, 42, Cast[int](42))
	assert.Equal(t, 0, Cast[int]("42"))
	assert.Equal(t, "", Cast[string](nil))

	var err error = errors.New("boom")
	assert.Equal(t, err, Cast[error](err))
	assert.Nil(t, Cast[error](nil))
}

func TestAt(t *testing.T) {
	vals := []interface{}{"a", 7}

	assert.Equal(t, "a", At[string](vals, 0))
	assert.Equal(t, 7, At[int](vals, 1))
	assert.Equal(t, 0, At[int](vals, 2))
	assert.Equal(t, "", At[string](vals, -1))
}

func TestError(t *testing.T) {
	boom := errors.New("boom")

	assert.Nil(t, Error(nil))
	assert.Nil(t, Error([]interface{}{1, nil}))
	assert.Equal(t, boom, Error([]interface{}{1, boom}))
	assert.Equal(t, boom, Error([]interface{}{boom}))
}
