package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"easyapply-engine/internal/config"
)

func TestKeychainThenEnv(t *testing.T) {
	keyring.MockInit()
	cfg := config.Default()
	cfg.Account.Username = "me@example.com"

	t.Setenv(EnvSitePassword, "")
	_, err := SitePassword(cfg)
	assert.ErrorIs(t, err, ErrSecretNotFound)

	t.Setenv(EnvSitePassword, "from-env")
	pw, err := SitePassword(cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-env", pw)

	require.NoError(t, Set(SiteAccount(cfg), "from-keychain"))
	pw, err = SitePassword(cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", pw)

	require.NoError(t, Delete(SiteAccount(cfg)))
	pw, err = SitePassword(cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-env", pw)
}

func TestLLMKeyEnvByProvider(t *testing.T) {
	keyring.MockInit()
	cfg := config.Default()
	cfg.LLM.Provider = "openai"
	t.Setenv(EnvOpenAIKey, "sk-test")
	t.Setenv(EnvGeminiKey, "")

	k, err := LLMKey(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", k)
}

func TestSetRejectsEmpty(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, Set("", "x"))
	assert.Error(t, Set("acct", " "))
}
