package main

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

type closeRecorder struct {
	name  string
	order *[]string
	err   error
}

func (c *closeRecorder) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestCloseAll_ReverseOrderDespiteErrors(t *testing.T) {
	var order []string
	closers := []io.Closer{
		&closeRecorder{name: "publisher", order: &order},
		&closeRecorder{name: "mirror", order: &order, err: errors.New("redis down")},
		&closeRecorder{name: "last", order: &order},
	}

	closeAll(closers)

	assert.Equal(t, []string{"last", "mirror", "publisher"}, order)
}

func TestCloseAll_Empty(t *testing.T) {
	assert.NotPanics(t, func() { closeAll(nil) })
}
