package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDestructiveCommandsRequireConfirmation(t *testing.T) {
	for _, name := range []string{"reset", "drop", "recreate"} {
		t.Run(name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetArgs([]string{name})
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			assert.ErrorIs(t, cmd.Execute(), errNotConfirmed)
		})
	}
}

func TestUnknownArgsRejected(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"create", "extra"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}
