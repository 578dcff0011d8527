package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// Credential names an API secret used by one of the external lookups.
type Credential string

const (
	// CredentialFactCheck is the Google Fact Check Tools API key.
	CredentialFactCheck Credential = "factcheck"

	// CredentialSerpAPI is the SerpAPI key used for Google Scholar lookups.
	CredentialSerpAPI Credential = "serpapi"

	// CredentialInference is the bearer token of the model servers.
	CredentialInference Credential = "inference"
)

// ErrUnknownCredential is returned for a name that is not a Credential.
var ErrUnknownCredential = errors.New("unknown credential: must be factcheck, serpapi or inference")

var credentialEnv = map[Credential]string{
	CredentialFactCheck: "VALIDITY_FACTCHECK_API_KEY",
	CredentialSerpAPI:   "VALIDITY_SERPAPI_KEY",
	CredentialInference: "VALIDITY_INFERENCE_TOKEN",
}

// ParseCredential converts s to a Credential.
func ParseCredential(s string) (Credential, error) {
	c := Credential(s)
	if _, ok := credentialEnv[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCredential, s)
	}
	return c, nil
}

// EnvVar returns the environment variable that holds the credential.
func (c Credential) EnvVar() string {
	return credentialEnv[c]
}

// LoadDotEnv loads variables from the given .env files (".env" when none is
// given) without overriding the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// LookupCredential returns the secret from the environment, then from the
// OS keyring. A secret stored nowhere yields "" and no error.
func LookupCredential(c Credential) (string, error) {
	if v := os.Getenv(c.EnvVar()); v != "" {
		return v, nil
	}
	secret, err := keyring.Get(AppName, string(c))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s from keyring: %w", c, err)
	}
	return secret, nil
}

// StoreCredential saves the secret in the OS keyring.
func StoreCredential(c Credential, secret string) error {
	if secret == "" {
		return fmt.Errorf("empty secret for %s", c)
	}
	if err := keyring.Set(AppName, string(c), secret); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", c, err)
	}
	return nil
}

// DeleteCredential removes the secret from the OS keyring.
func DeleteCredential(c Credential) error {
	if err := keyring.Delete(AppName, string(c)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keyring: %w", c, err)
	}
	return nil
}

// ResolveCredentials fills the API keys of c that are still empty.
// A keyring failure for one credential does not stop the others; all
// failures are returned joined.
func (c *Config) ResolveCredentials() error {
	var errs []error
	targets := []struct {
		cred Credential
		dst  *string
	}{
		{CredentialFactCheck, &c.FactCheckAPIKey},
		{CredentialSerpAPI, &c.SerpAPIKey},
		{CredentialInference, &c.InferenceToken},
	}
	for _, t := range targets {
		if *t.dst != "" {
			continue
		}
		v, err := LookupCredential(t.cred)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*t.dst = v
	}
	return errors.Join(errs...)
}
