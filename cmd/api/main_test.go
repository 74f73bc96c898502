package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"fraudguard/config"
)

func TestFlags(t *testing.T) {
	var names []string
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) { names = append(names, f.Name) })
	sort.Strings(names)
	if strings.Join(names, ",") != "config,host,port" {
		t.Fatalf("unexpected flags: %v", names)
	}
}

// go test runs from cmd/api, two levels below config.yaml.
func TestConfigFoundFromCommandDirectory(t *testing.T) {
	path := resolveConfigPath("")
	if path != filepath.Join("..", "..", "config.yaml") {
		t.Fatalf("unexpected config path %q", path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(cfg.Model.Path); err != nil {
		t.Fatalf("model path %q not reachable: %v", cfg.Model.Path, err)
	}

	if got := resolveConfigPath("custom.yaml"); got != "custom.yaml" {
		t.Fatalf("explicit --config should win, got %q", got)
	}
}
