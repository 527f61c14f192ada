package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncdist/rw-automator/config"
)

func TestRunRejectsBadArguments(t *testing.T) {
	assert.Equal(t, 1, run(nil), "no arguments")
	assert.Equal(t, 1, run([]string{"defragDisk"}), "unknown process")
	assert.Equal(t, 1, run([]string{"resetOrder", "408516"}), "missing distribution center")
}

func TestOpenJobStoreUnreachableDatabase(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Port 1 refuses immediately. The helper must hand back a nil store
	// instead of an error so the reset still runs untracked.
	store, closeStore := openJobStore(logger, config.DBConfig{
		Host: "127.0.0.1",
		Port: 1,
		User: "automator",
		Name: "automator",
	})

	assert.Nil(t, store)
	require.NotNil(t, closeStore)
	closeStore()
}
