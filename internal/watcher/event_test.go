package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOp_String(t *testing.T) {
	assert.Equal(t, "create", Create.String())
	assert.Equal(t, "write", Write.String())
	assert.Equal(t, "remove", Remove.String())
	assert.Equal(t, "op(0)", Op(0).String())
}
