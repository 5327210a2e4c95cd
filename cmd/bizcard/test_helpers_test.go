package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bizcard/internal/config"
	"bizcard/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("BIZCARD_DB_URL", "")
	t.Setenv("DATABASE_URL", "")

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(homeDir, ".config", "bizcard", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config, extra ...string) {
	t.Helper()

	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\ndata_dir = %q\nupload_dir = %q\nlog_dir = %q\n\n", cfg.Paths.DataDir, cfg.Paths.UploadDir, cfg.Paths.LogDir)
	fmt.Fprintf(&b, "[database]\ndriver = \"sqlite\"\nsqlite_path = %q\n\n", cfg.Database.SQLitePath)
	fmt.Fprintf(&b, "[ocr]\nengine = \"tesseract\"\ntesseract_binary = %q\n\n", cfg.OCR.TesseractBinary)
	b.WriteString("[logging]\nlevel = \"error\"\n")
	for _, section := range extra {
		b.WriteString("\n" + section + "\n")
	}
	testsupport.WriteFile(t, path, []byte(b.String()))
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", needle, haystack)
	}
}
