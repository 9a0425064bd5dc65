package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareGraphEntry_Defaults(t *testing.T) {
	e := NewShareGraphEntry("alice@example.com")
	assert.Equal(t, "alice@example.com", e.Owner)
	assert.Empty(t, e.Grantees)
	assert.True(t, e.SharingEnabled)
}

func TestShareGraphEntry_AddGrantee_NoDuplicates(t *testing.T) {
	e := NewShareGraphEntry("alice")
	require.True(t, e.AddGrantee("bob"))
	require.False(t, e.AddGrantee("bob"))
	assert.Equal(t, []string{"bob"}, e.Grantees)
}

func TestShareGraphEntry_RemoveGrantee(t *testing.T) {
	e := NewShareGraphEntry("alice")
	e.AddGrantee("bob")
	e.AddGrantee("carol")

	require.True(t, e.RemoveGrantee("bob"))
	assert.Equal(t, []string{"carol"}, e.Grantees)

	// Removing a non-member is a no-op.
	require.False(t, e.RemoveGrantee("bob"))
	assert.Equal(t, []string{"carol"}, e.Grantees)
}

func TestShareGraphEntry_HasGrantee(t *testing.T) {
	e := NewShareGraphEntry("alice")
	e.AddGrantee("bob")
	assert.True(t, e.HasGrantee("bob"))
	assert.False(t, e.HasGrantee("carol"))
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("bob"))
	assert.True(t, ValidIdentifier("bob@example.com"))
	assert.True(t, ValidIdentifier("first.last+tag@example.co.uk"))

	assert.False(t, ValidIdentifier(""))
	assert.False(t, ValidIdentifier("has space"))
	assert.False(t, ValidIdentifier("tab\there"))
	assert.False(t, ValidIdentifier("@example.com"))
	assert.False(t, ValidIdentifier("double@@example.com"))
	assert.False(t, ValidIdentifier(strings.Repeat("x", 300)))
}
