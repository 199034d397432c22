package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyCodeRoundTrip(t *testing.T) {
	a := New()

	encoded, err := a.GenerateFromCode("12345678901234")
	require.NoError(t, err)

	ok, err := a.VerifyCode("12345678901234", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyCode("12345678901235", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyCodeMalformedHash(t *testing.T) {
	a := New()

	for _, e := range []string{"", "not-a-hash", "$argon2id$v=19$m=bad$x$y"} {
		ok, err := a.VerifyCode("12345678901234", e)
		assert.Error(t, err)
		assert.False(t, ok)
	}
}

func TestGenerateProducesUniqueSalts(t *testing.T) {
	a := New()

	e1, err := a.GenerateFromCode("12345678901234")
	require.NoError(t, err)

	e2, err := a.GenerateFromCode("12345678901234")
	require.NoError(t, err)

	assert.NotEqual(t, e1, e2)
}
