package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslations(t *testing.T) {
	require.NoError(t, Initialize("en"))

	assert.Equal(t, "Product not found", T("en", KeyProductNotFound))
	assert.Equal(t, "उत्पाद नहीं मिला", T("hi", KeyProductNotFound))
	assert.Equal(t, "Invalid request", T("en", KeyValidationInvalid, "request"))

	// unknown language falls back to the default
	assert.Equal(t, "Metal not found", T("fr", KeyMetalNotFound))
	// unknown key is returned as-is
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))

	assert.Equal(t, []string{"en", "hi"}, GetSupportedLanguages())
	assert.True(t, IsSupported("hi"))
	assert.False(t, IsSupported("zh_TW"))
}

func TestLocalesHaveSameKeys(t *testing.T) {
	require.NoError(t, Initialize("en"))

	en := instance.translations["en"]
	hi := instance.translations["hi"]
	require.NotEmpty(t, en)

	for key := range en {
		assert.Contains(t, hi, key)
	}
	assert.Len(t, hi, len(en))
}
