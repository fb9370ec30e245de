package main

import (
	"bytes"
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/AngelP17/HARPY-sub000/internal/version"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options
	}{
		{"defaults", nil, options{}},
		{"config path", []string{"-config", "/etc/trackview.yaml"}, options{configPath: "/etc/trackview.yaml"}},
		{"log level", []string{"--log-level=debug"}, options{logLevel: "debug"}},
		{"version", []string{"-version"}, options{showVersion: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			got, err := parseFlags(fs, tt.args)
			if err != nil {
				t.Fatalf("parseFlags() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFlags_Unknown(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := parseFlags(fs, []string{"-listen", ":8080"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)
	if !strings.HasPrefix(buf.String(), "trackview "+version.Version) {
		t.Errorf("printVersion() = %q", buf.String())
	}
}
