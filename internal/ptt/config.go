package ptt

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Config struct
type Config struct {
	Values                    map[string]string
	DefaultMaxUseCombinations int
}

// Load /etc/pkg-testing-tool.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge PTT_* env overrides
	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge PTT_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "PTT_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

func initConfig(cfg *Config) {
	if root := cfg.Values["PTT_CONFIG_ROOT"]; root != "" {
		portageConfigRoot = root
	}

	if emerge := cfg.Values["PTT_EMERGE_BINARY"]; emerge != "" {
		emergeBinary = emerge
	}

	if dir := cfg.Values["PTT_LOG_DIR"]; dir != "" {
		logDir = dir
	}

	Debug = false
	if cfg.Values["PTT_DEBUG"] == "1" {
		Debug = true
	}

	cfg.DefaultMaxUseCombinations = 16
	if v := cfg.Values["PTT_MAX_USE_COMBINATIONS"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultMaxUseCombinations = n
		}
	}
}
