package config

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

var envFileNames = []string{".env.local", ".env"}

// loadEnvFiles applies .env.local and .env from the working directory and
// the executable's directory. Variables already set win.
func loadEnvFiles() {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	for _, dir := range dirs {
		for _, name := range envFileNames {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			for key, value := range parseEnvFile(data) {
				if os.Getenv(key) == "" {
					_ = os.Setenv(key, value)
				}
			}
		}
	}
}

// parseEnvFile reads KEY=VALUE lines, skipping blanks and # comments.
// Surrounding quotes are stripped from values.
func parseEnvFile(data []byte) map[string]string {
	out := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		if !ok || key == "" {
			continue
		}
		out[key] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return out
}
