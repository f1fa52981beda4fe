package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/megaglest/masterserver/internal/config"
)

func TestParseArgsDefaults(t *testing.T) {
	opts, err := parseArgs(nil)
	if err != nil {
		t.Fatalf("parseArgs returned error: %v", err)
	}

	if opts.check {
		t.Fatalf("expected check to be off by default")
	}
	if opts.overrides.ConfigFile != config.DefaultPath {
		t.Fatalf("expected default config path, got %s", opts.overrides.ConfigFile)
	}
	if opts.overrides.DBHost != nil || opts.overrides.MaxRecentServers != nil || opts.overrides.LogLevel != nil {
		t.Fatalf("expected no overrides, got %+v", opts.overrides)
	}
}

func TestParseArgsOverrides(t *testing.T) {
	opts, err := parseArgs([]string{
		"--config=/etc/masterserver.yaml",
		"--db-host=10.0.0.5",
		"--max-recent-servers=9",
		"--log-level=debug",
		"--check",
	})
	if err != nil {
		t.Fatalf("parseArgs returned error: %v", err)
	}

	if !opts.check {
		t.Fatalf("expected check to be enabled")
	}
	o := opts.overrides
	if o.ConfigFile != "/etc/masterserver.yaml" {
		t.Fatalf("unexpected config file %s", o.ConfigFile)
	}
	if o.DBHost == nil || *o.DBHost != "10.0.0.5" {
		t.Fatalf("unexpected db host override %v", o.DBHost)
	}
	if o.MaxRecentServers == nil || *o.MaxRecentServers != 9 {
		t.Fatalf("unexpected max recent servers override %v", o.MaxRecentServers)
	}
	if o.LogLevel == nil || *o.LogLevel != "debug" {
		t.Fatalf("unexpected log level override %v", o.LogLevel)
	}
}

func TestParseArgsRejectsNonInteger(t *testing.T) {
	if _, err := parseArgs([]string{"--max-recent-servers=five"}); err == nil {
		t.Fatalf("expected error for non-integer flag")
	}
}

const validConfig = `product_name: MegaGlest
product_url: http://megaglest.org
db_host: 127.0.0.1
db_name: glest
db_user: root
db_password: your_pwd
max_recent_servers: 5
default_country_code: "??"
`

func TestRunExitCodes(t *testing.T) {
	// Blank variables are ignored by the loader, so these neutralise the host environment.
	t.Setenv("MASTERSERVER_MAX_RECENT_SERVERS", "")
	t.Setenv("MASTERSERVER_LOG_LEVEL", "")

	dir := t.TempDir()
	write := func(name, contents string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		return path
	}

	zeroServers := strings.Replace(validConfig, "max_recent_servers: 5", "max_recent_servers: 0", 1)

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{
			name:       "missing file",
			args:       []string{"--config=" + filepath.Join(dir, "absent.yaml")},
			wantCode:   1,
			wantStderr: "failed to load configuration: configuration access",
		},
		{
			name:       "zero max recent servers",
			args:       []string{"--config=" + write("zero.yaml", zeroServers)},
			wantCode:   1,
			wantStderr: `failed to load configuration: invalid value "0" for max_recent_servers`,
		},
		{
			name:       "unknown flag",
			args:       []string{"--no-such-flag"},
			wantCode:   1,
			wantStderr: "masterserver: error:",
		},
		{
			name:     "check valid configuration",
			args:     []string{"--config=" + write("valid.yaml", validConfig), "--check", "--log-level=error"},
			wantCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			code := run(tt.args, &stderr)

			if code != tt.wantCode {
				t.Fatalf("expected exit code %d, got %d (stderr %q)", tt.wantCode, code, stderr.String())
			}
			if tt.wantStderr == "" {
				if stderr.Len() != 0 {
					t.Fatalf("expected empty stderr, got %q", stderr.String())
				}
				return
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Fatalf("expected stderr to contain %q, got %q", tt.wantStderr, stderr.String())
			}
		})
	}
}
