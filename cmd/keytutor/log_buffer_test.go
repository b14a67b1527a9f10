package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogBuffer(t *testing.T) {
	buf := newLogBuffer(3)
	assert.Empty(t, buf.ReadLastMessages(5))

	buf.WriteMessage([]byte("a"))
	buf.WriteMessage([]byte("b"))
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, buf.ReadLastMessages(5))
	assert.Equal(t, [][]byte{[]byte("b")}, buf.ReadLastMessages(1))

	buf.WriteMessage([]byte("c"))
	buf.WriteMessage([]byte("d"))
	assert.Equal(t, [][]byte{[]byte("b"), []byte("c"), []byte("d")}, buf.ReadLastMessages(3))
	assert.Equal(t, [][]byte{[]byte("c"), []byte("d")}, buf.ReadLastMessages(2))
	assert.Empty(t, buf.ReadLastMessages(0))
}

func TestLogBufferMinimalSize(t *testing.T) {
	buf := newLogBuffer(0)
	buf.WriteMessage([]byte("a"))
	buf.WriteMessage([]byte("b"))
	assert.Equal(t, [][]byte{[]byte("b")}, buf.ReadLastMessages(10))
}
