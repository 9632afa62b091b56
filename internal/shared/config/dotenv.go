package config

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// loadEnvFiles applies KEY=VALUE pairs from each file that exists. Variables already
// present in the process environment win, so a real deployment is never overridden by a
// stray .env file. Missing or unreadable files are skipped.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		for key, val := range parseEnv(f) {
			if _, set := os.LookupEnv(key); !set {
				os.Setenv(key, val)
			}
		}
		_ = f.Close()
	}
}

// parseEnv understands `export` prefixes, single or double quoted values and trailing
// `# comments` on unquoted values.
func parseEnv(r io.Reader) map[string]string {
	out := map[string]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		out[key] = envValue(strings.TrimSpace(val))
	}
	return out
}

func envValue(raw string) string {
	if len(raw) >= 2 {
		if q := raw[0]; (q == '"' || q == '\'') && strings.IndexByte(raw[1:], q) >= 0 {
			return raw[1 : 1+strings.IndexByte(raw[1:], q)]
		}
	}
	if i := strings.Index(raw, " #"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}
