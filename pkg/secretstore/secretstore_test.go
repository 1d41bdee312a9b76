package secretstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betcli/gotrade/clob/types"
)

const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(OpenOptions{Path: filepath.Join(t.TempDir(), "secrets")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadCreds(t *testing.T) {
	s := testStore(t)

	creds := &types.ApiKeyCreds{
		Key:        "9aa8fdbd-ee01-4e38-a7a2-8a163a2ebe90",
		Secret:     "c2VjcmV0LW1hdGVyaWFs",
		Passphrase: "passphrase",
	}
	require.NoError(t, s.SaveCreds(testAddress, creds))

	loaded, found, err := s.LoadCreds(testAddress)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, creds, loaded)

	// address lookup is case-insensitive
	loaded, found, err = s.LoadCreds("0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, creds.Key, loaded.Key)
}

func TestLoadCreds_Missing(t *testing.T) {
	s := testStore(t)

	_, found, err := s.LoadCreds(testAddress)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteCreds(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.SaveCreds(testAddress, &types.ApiKeyCreds{Key: "k"}))
	require.NoError(t, s.DeleteCreds(testAddress))

	_, found, err := s.LoadCreds(testAddress)
	require.NoError(t, err)
	assert.False(t, found)

	// deleting a missing key is not an error
	require.NoError(t, s.DeleteCreds(testAddress))
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey("0xabcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789")
	require.NoError(t, err)
	assert.Len(t, key, 32)

	key, err = ParseKey("")
	require.NoError(t, err)
	assert.Nil(t, key)

	_, err = ParseKey("abcd")
	assert.Error(t, err)
}
