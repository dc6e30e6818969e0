package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"tether/internal/models"
	"tether/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"migrate", "seed", "certificate", "admin", "openapi-compat", "nuke"} {
		assert.Contains(t, names, want)
	}
}

func TestSeedFlagsOptions(t *testing.T) {
	cmd := newSeedCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--users", "12", "--relationships", "4", "--clean=false", "--seed", "7"}))

	users, _ := cmd.Flags().GetInt("users")
	assert.Equal(t, 12, users)

	opts := seedFlags{users: 12, relationships: 4, maxDays: 30, randSeed: 7}.options()
	assert.Equal(t, 12, opts.NumUsers)
	assert.Equal(t, 4, opts.NumRelationships)
	assert.False(t, opts.ShouldClean)
	assert.Equal(t, 30, opts.MaxDays)
	assert.Equal(t, int64(7), opts.RandSeed)
}

func TestSeedRejectsNegativeCounts(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"seed", "--users", "-1"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestCertificateRevokeValidatesArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad id", []string{"certificate", "revoke", "abc", "--actor", "1"}, "invalid certificate id"},
		{"zero id", []string{"certificate", "revoke", "0", "--actor", "1"}, "invalid certificate id"},
		{"missing actor", []string{"certificate", "revoke", "3"}, "--actor is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			root.SetArgs(tt.args)
			err := root.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSetAdmin(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "robin")
	ctx := context.Background()

	got, changed, err := setAdmin(ctx, db, user.ID, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, got.IsAdmin)

	_, changed, err = setAdmin(ctx, db, user.ID, true)
	require.NoError(t, err)
	assert.False(t, changed, "promoting an admin is a no-op")

	var out bytes.Buffer
	require.NoError(t, listAdmins(ctx, db, &out))
	assert.Contains(t, out.String(), "robin")

	_, changed, err = setAdmin(ctx, db, user.ID, false)
	require.NoError(t, err)
	assert.True(t, changed)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.False(t, reloaded.IsAdmin)

	out.Reset()
	require.NoError(t, listAdmins(ctx, db, &out))
	assert.Equal(t, "No admins found\n", out.String())

	_, _, err = setAdmin(ctx, db, 9999, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestConfirmAction(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		assert.Equal(t, tt.want, confirmAction(strings.NewReader(tt.input), &out, "Proceed?"), "input %q", tt.input)
		assert.Equal(t, "Proceed? [y/N]: ", out.String())
	}
}
