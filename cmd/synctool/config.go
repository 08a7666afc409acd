package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const configRelPath = "synctool/config.json"

// toolConfig is the on-disk configuration for the synctool host harness,
// stored at ~/.config/synctool/config.json.
type toolConfig struct {
	Origin    string `json:"origin"`
	DBPath    string `json:"db_path"`
	ServerURL string `json:"server_url"`
	Secret    string `json:"secret,omitempty"`

	// SealSalt, when set, enables end-to-end payload encryption: every
	// peer in a project must share the same salt and passphrase so they
	// derive the same AES key. The passphrase itself is never stored on
	// disk; it's supplied per-invocation via --passphrase or SYNCTOOL_PASSPHRASE.
	SealSalt string `json:"seal_salt,omitempty"`
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configRelPath), nil
}

// loadConfig reads the config file, returning a zero-value config (not an
// error) if it does not exist yet.
func loadConfig() (*toolConfig, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &toolConfig{}, nil
		}
		return nil, err
	}
	var cfg toolConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// saveConfig writes the config atomically: temp file in the same
// directory, then rename, matching internal/config.Save's pattern.
func saveConfig(cfg *toolConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
