package ginst

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the merged file and environment configuration.
type Config struct {
	Values map[string]string

	// Typed fields resolved by initConfig.
	WorkDir string // where the archive and source tree land
	Mirror  string // GNU source mirror base URL
	FTPHost string // host for the version listing
	Jobs    int    // parallel make jobs, 0 means use all cores
}

// LoadConfig reads /etc/ginst.conf and applies GINST_* env overrides.
func LoadConfig(path string) (*Config, error) {
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

	mergeEnvOverrides(cfg)
	initConfig(cfg)
	return cfg, nil
}

// Merge GINST_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "GINST_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

func initConfig(cfg *Config) {
	cfg.WorkDir = cfg.Values["GINST_WORK_DIR"]
	if cfg.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.WorkDir = wd
		} else {
			cfg.WorkDir = "."
		}
	}
	if abs, err := filepath.Abs(cfg.WorkDir); err == nil {
		cfg.WorkDir = abs
	}

	cfg.Mirror = cfg.Values["GINST_MIRROR"]
	if cfg.Mirror == "" {
		cfg.Mirror = defaultSourceMirror
	}
	cfg.Mirror = strings.TrimRight(cfg.Mirror, "/")

	cfg.FTPHost = cfg.Values["GINST_FTP_HOST"]
	if cfg.FTPHost == "" {
		cfg.FTPHost = defaultFTPHost
	}

	if jobs := cfg.Values["GINST_JOBS"]; jobs != "" {
		if n, err := strconv.Atoi(jobs); err == nil && n > 0 {
			cfg.Jobs = n
		}
	}

	if cfg.Values["GINST_DEBUG"] == "1" {
		Debug = true
	}
}
