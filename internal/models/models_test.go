package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPasswordHashesCredential(t *testing.T) {
	user := &User{}
	require.NoError(t, user.SetPassword("correct horse battery staple"))

	assert.NotEmpty(t, user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "correct horse")
}

func TestVerifyPassword(t *testing.T) {
	user := &User{}
	require.NoError(t, user.SetPassword("correct horse battery staple"))

	assert.True(t, user.VerifyPassword("correct horse battery staple"))
	assert.False(t, user.VerifyPassword("wrong password"))
	assert.False(t, user.VerifyPassword(""))
}

func TestPasswordIsNotReadable(t *testing.T) {
	user := &User{}
	require.NoError(t, user.SetPassword("correct horse battery staple"))

	_, err := user.Password()
	assert.ErrorIs(t, err, ErrPasswordNotReadable)
}

func TestSetPasswordProducesDistinctHashes(t *testing.T) {
	a := &User{}
	b := &User{}
	require.NoError(t, a.SetPassword("correct horse battery staple"))
	require.NoError(t, b.SetPassword("correct horse battery staple"))

	// bcrypt salts each hash.
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}
