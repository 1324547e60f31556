package i18n

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	t.Run("resolves known keys", func(t *testing.T) {
		require.Equal(t, "Wrong password.", T("wrong_password"))
	})

	t.Run("falls back to the key", func(t *testing.T) {
		require.Equal(t, "no_such_key", T("no_such_key"))
	})

	t.Run("formats arguments", func(t *testing.T) {
		require.Equal(t, "Method PATCH not allowed.", Tf("method_not_allowed", "PATCH"))
	})
}

func TestLoad(t *testing.T) {
	_, err := Load("xx")
	require.Error(t, err)

	_, err = Load("  ")
	require.Error(t, err)

	catalog, err := Load("EN")
	require.NoError(t, err)
	require.Equal(t, "en", catalog.lang)
}

func TestSetLanguage(t *testing.T) {
	require.Error(t, SetLanguage("zz"))
	require.Equal(t, "en", Language())

	require.NoError(t, SetLanguage("en"))
	require.Equal(t, "en", Language())
}
