package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadFile reads the optional YAML config file: FORUMLIFT_CONFIG if set,
// otherwise ~/.forumlift/config.yaml. Keys are the environment variable
// names, lowercased. A missing or malformed file is ignored; environment
// variables always win over file values.
func loadFile() map[string]string {
	path := os.Getenv("FORUMLIFT_CONFIG")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".forumlift", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil
	}

	return values
}

func resolve(file map[string]string, key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := file[strings.ToLower(key)]; v != "" {
		return v
	}
	return def
}
