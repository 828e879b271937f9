package firebaseapp

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsOption(t *testing.T) {
	t.Run("base64 json", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte(`{"type":"service_account"}`))
		opt, err := CredentialsOption(encoded, "")
		require.NoError(t, err)
		assert.NotNil(t, opt)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := CredentialsOption("%%%not-base64", "")
		assert.Error(t, err)
	})

	t.Run("key file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "key.json")
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

		opt, err := CredentialsOption("", path)
		require.NoError(t, err)
		assert.NotNil(t, opt)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := CredentialsOption("", filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorIs(t, err, ErrNoCredentials)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := CredentialsOption("", "")
		assert.ErrorIs(t, err, ErrNoCredentials)
	})
}
