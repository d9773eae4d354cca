package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"easyapply-engine/internal/config"
)

const (
	// Service groups the app's secrets in the OS keychain.
	KeyringService = "easyapply"

	EnvSitePassword = "EASYAPPLY_PASSWORD"
	EnvIMAPPassword = "EASYAPPLY_IMAP_PASSWORD"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
)

var ErrSecretNotFound = errors.New("secret not found (set it in keychain or via env)")

// Get reads account from the keychain first, then falls back to the env var.
func Get(account, env string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if env != "" {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s: %w", account, ErrSecretNotFound)
}

func Set(account, secret string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(secret) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, secret)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

func SiteAccount(cfg config.Config) string {
	return fmt.Sprintf("easyapply:site:%s", cfg.Account.Username)
}

func IMAPAccount(cfg config.Config) string {
	return fmt.Sprintf("easyapply:imap:%s@%s", cfg.IMAP.Username, cfg.IMAP.Host)
}

func LLMAccount(cfg config.Config) string {
	return fmt.Sprintf("easyapply:llm:%s", cfg.LLM.Provider)
}

func SitePassword(cfg config.Config) (string, error) {
	return Get(SiteAccount(cfg), EnvSitePassword)
}

func IMAPPassword(cfg config.Config) (string, error) {
	return Get(IMAPAccount(cfg), EnvIMAPPassword)
}

func LLMKey(cfg config.Config) (string, error) {
	env := EnvGeminiKey
	if cfg.LLM.Provider == "openai" {
		env = EnvOpenAIKey
	}
	return Get(LLMAccount(cfg), env)
}
