package census

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// The API key lives in a small YAML file under the platform's user config
// directory so it survives across processes and never has to be re-supplied.

type credentialsFile struct {
	APIKey string `yaml:"api_key"`
}

// DefaultCredentialsPath returns the user-scoped credentials file location,
// e.g. ~/.config/census/credentials.yaml on Linux.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("census: resolving user config dir: %w", err)
	}
	return filepath.Join(dir, "census", "credentials.yaml"), nil
}

// InstallKey persists the API key to the default credentials file. Required
// once per environment; subsequent Clients pick the key up automatically.
func InstallKey(key string) error {
	path, err := DefaultCredentialsPath()
	if err != nil {
		return &ConfigWriteError{Err: err}
	}
	return InstallKeyTo(path, key)
}

// InstallKeyTo persists the API key to an explicit location. The file is
// written with owner-only permissions via a temp file and rename, so a
// concurrent reader never sees a torn write.
func InstallKeyTo(path, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("census: api key is empty")
	}

	data, err := yaml.Marshal(credentialsFile{APIKey: key})
	if err != nil {
		return &ConfigWriteError{Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return &ConfigWriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return &ConfigWriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &ConfigWriteError{Path: path, Err: err}
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &ConfigWriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &ConfigWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &ConfigWriteError{Path: path, Err: err}
	}
	return nil
}

// LookupKey reads the API key from the default credentials file. A missing
// file surfaces as an os.IsNotExist error.
func LookupKey() (string, error) {
	path, err := DefaultCredentialsPath()
	if err != nil {
		return "", err
	}
	return LookupKeyFrom(path)
}

// LookupKeyFrom reads the API key from an explicit location.
func LookupKeyFrom(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var f credentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("census: parsing %s: %w", path, err)
	}
	if f.APIKey == "" {
		return "", fmt.Errorf("census: %s contains no api_key", path)
	}
	return f.APIKey, nil
}
