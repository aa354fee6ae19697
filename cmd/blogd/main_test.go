package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/internal/auth"
	"blog/internal/db"
	"blog/internal/models"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "migrate", "admin"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "test-version")
}

func TestUnknownCommand(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"nonexistent"})

	require.Error(t, cmd.Execute())
}

func TestMigrateCommand(t *testing.T) {
	t.Setenv("BLOG_DB_PATH", filepath.Join(t.TempDir(), "test.db"))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"migrate"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "schema version 1")
}

func TestAdminGrantRevoke(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	t.Setenv("BLOG_DB_PATH", dbPath)
	ctx := context.Background()

	database, err := db.Open(dbPath)
	require.NoError(t, err)
	registry := auth.NewRegistry(database)
	_, err = registry.Register(ctx, "root@example.com", "secret", "Root")
	require.NoError(t, err)
	_, err = registry.Register(ctx, "grace@example.com", "secret", "Grace")
	require.NoError(t, err)
	require.NoError(t, database.Close())

	runAdmin := func(args ...string) (string, error) {
		cmd := NewRootCmd()
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		cmd.SetArgs(append([]string{"admin"}, args...))
		err := cmd.Execute()
		return buf.String(), err
	}

	currentRole := func() models.Role {
		database, err := db.Open(dbPath)
		require.NoError(t, err)
		defer database.Close()
		user, err := auth.NewRegistry(database).ByEmail(ctx, "grace@example.com")
		require.NoError(t, err)
		return user.Role
	}

	t.Run("grant", func(t *testing.T) {
		out, err := runAdmin("grant", "grace@example.com")
		require.NoError(t, err)
		assert.Contains(t, out, "admin")
		assert.Equal(t, models.RoleAdmin, currentRole())
	})

	t.Run("revoke", func(t *testing.T) {
		out, err := runAdmin("revoke", "grace@example.com")
		require.NoError(t, err)
		assert.Contains(t, out, "reader")
		assert.Equal(t, models.RoleReader, currentRole())
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := runAdmin("grant", "nobody@example.com")
		require.Error(t, err)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := runAdmin("grant")
		require.Error(t, err)
	})
}
