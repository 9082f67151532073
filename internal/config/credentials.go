package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nsg-cli/internal/nsg"
)

const (
	configDirName   = ".nsg"
	credentialsFile = "credentials.json"
)

// Environment overrides. Any variable that is set wins over the stored
// credentials file, so CI and scripts can run without `nsg login`.
const (
	EnvUsername = "NSG_USERNAME"
	EnvPassword = "NSG_PASSWORD"
	EnvAppKey   = "NSG_APP_KEY"
	EnvBaseURL  = "NSG_URL"
)

var ErrNoCredentials = errors.New("no credentials found")

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

func credentialsPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credentialsFile), nil
}

// CredentialsLocation is the display path of the credentials file, for
// usage hints.
func CredentialsLocation() string {
	path, err := credentialsPath()
	if err != nil {
		return "~/" + configDirName + "/" + credentialsFile
	}
	return path
}

// BaseURL resolves the gateway endpoint, honoring the NSG_URL override.
func BaseURL() string {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		return v
	}
	return nsg.DefaultBaseURL
}

// LoadCredentials reads the stored credentials and applies environment
// overrides. Missing file plus incomplete environment is ErrNoCredentials.
func LoadCredentials() (nsg.Credentials, error) {
	path, err := credentialsPath()
	if err != nil {
		return nsg.Credentials{}, err
	}

	var creds nsg.Credentials
	stored := false
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &creds); err != nil {
			return nsg.Credentials{}, fmt.Errorf("parse credentials file %s: %w", path, err)
		}
		stored = true
	case !errors.Is(err, os.ErrNotExist):
		return nsg.Credentials{}, fmt.Errorf("read credentials file %s: %w", path, err)
	}

	if v := strings.TrimSpace(os.Getenv(EnvUsername)); v != "" {
		creds.Username = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPassword)); v != "" {
		creds.Password = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAppKey)); v != "" {
		creds.AppKey = v
	}

	if creds.Username == "" || creds.Password == "" || creds.AppKey == "" {
		if !stored {
			return nsg.Credentials{}, fmt.Errorf("%w: run 'nsg login' first (expected at %s)", ErrNoCredentials, path)
		}
		return nsg.Credentials{}, fmt.Errorf("credentials file %s is incomplete", path)
	}
	return creds, nil
}

// SaveCredentials persists creds owner-readable only (0600), written via a
// temp file and atomic rename so a crash never leaves a half-written file.
func SaveCredentials(creds nsg.Credentials) error {
	if creds.Username == "" || creds.Password == "" || creds.AppKey == "" {
		return fmt.Errorf("refusing to save incomplete credentials")
	}
	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, credentialsFile)

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".nsg-creds-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}
