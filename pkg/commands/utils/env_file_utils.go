package utils

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

const envFileMode = 0600

// SetEnvFileVariables writes vars into a dotenv file, creating it when missing.
// Existing keys are replaced in place, duplicates dropped, comments kept, and new
// keys appended in sorted order.
func SetEnvFileVariables(filePath string, vars map[string]string) error {
	var lines []string

	info, err := os.Stat(filePath)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	case err == nil:
		data, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read env file %s: %w", filePath, err)
		}
		content := strings.TrimRight(string(data), "\n")
		if content != "" {
			lines = strings.Split(content, "\n")
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to access env file %s: %w", filePath, err)
	}

	written := make(map[string]bool, len(vars))
	out := make([]string, 0, len(lines)+len(vars))
	for _, line := range lines {
		key, ok := envLineKey(line)
		value, managed := vars[key]
		if !ok || !managed {
			out = append(out, line)
			continue
		}
		if written[key] {
			continue
		}
		entry, err := formatEnvEntry(key, value)
		if err != nil {
			return err
		}
		out = append(out, entry)
		written[key] = true
	}

	keys := make([]string, 0, len(vars))
	for key := range vars {
		if !written[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if len(keys) > 0 && len(out) > 0 && out[len(out)-1] != "" {
		out = append(out, "")
	}
	for _, key := range keys {
		entry, err := formatEnvEntry(key, vars[key])
		if err != nil {
			return err
		}
		out = append(out, entry)
	}

	if err := os.WriteFile(filePath, []byte(strings.Join(out, "\n")+"\n"), envFileMode); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", filePath, err)
	}
	return nil
}

// envLineKey returns the variable a line assigns, ignoring comments and blanks.
func envLineKey(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	trimmed = strings.TrimPrefix(trimmed, "export ")
	key, _, found := strings.Cut(trimmed, "=")
	if !found {
		return "", false
	}
	return strings.TrimSpace(key), true
}

func formatEnvEntry(key, value string) (string, error) {
	entry, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return entry, nil
}
