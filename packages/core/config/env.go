package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "WFM_"

// MissingError lists required settings that are not configured
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing configuration: %s", strings.Join(e.Keys, ", "))
}

// LoadDotEnv parses a .env file and returns key-value pairs.
// Supports: KEY=value, KEY="quoted value", KEY='single quoted', # comments
func LoadDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	result := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		result[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}

	return result, nil
}

// ApplyEnv returns a copy of c overridden by WFM_* variables. The process
// environment wins over values read from a .env file.
func (c *Config) ApplyEnv(dotenv map[string]string) (*Config, error) {
	get := func(name string) (string, bool) {
		key := EnvPrefix + name
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	override := &Config{}
	if v, ok := get("HOST"); ok {
		override.Host = v
	}
	if v, ok := get("API_KEY"); ok {
		override.APIKey = v
	}
	if v, ok := get("ACCOUNT_KEY"); ok {
		override.AccountKey = v
	}
	if v, ok := get("EMAIL"); ok {
		override.Email = v
	}
	if v, ok := get("STAFF_ID"); ok {
		override.StaffID = v
	}
	if v, ok := get("QUEUE_DIR"); ok {
		override.QueueDir = v
	}
	if v, ok := get("TIMEOUT"); ok {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
		}
		override.Timeout = ms
	}
	if v, ok := get("UPLOAD_RATE"); ok {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%sUPLOAD_RATE: %w", EnvPrefix, err)
		}
		override.UploadRate = rate
	}

	return c.Merge(override), nil
}
