package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/recovery"
)

func TestRecoverCommand(t *testing.T) {
	file := filepath.Join(t.TempDir(), "output.txt")
	fenced := "Here you go:\n```json\n{\"title\": \"Brass Desk Lamp\", \"specs\": \"Height: 40cm\", \"confident\": true}\n```"
	if err := os.WriteFile(file, []byte(fenced), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  recovery.Result
	}{
		{
			name: "file",
			args: []string{"recover", file},
			want: recovery.Result{PrimaryText: "Brass Desk Lamp", BodyText: "Height: 40cm", Confident: true, Path: recovery.PathStrict},
		},
		{
			name:  "stdin",
			stdin: `{"title": "Lamp", "specs": "Brass", "confident": false}`,
			args:  []string{"recover"},
			want:  recovery.Result{PrimaryText: "Lamp", BodyText: "Brass", Path: recovery.PathStrict},
		},
		{
			name:  "truncated output is salvaged",
			stdin: `{"title": "Lamp", "specs": "Height: 40cm`,
			args:  []string{"recover", "-"},
			want:  recovery.Result{PrimaryText: "Lamp", BodyText: "Height: 40cm", Path: recovery.PathSalvaged},
		},
		{
			name:  "custom fields",
			stdin: `{"name": "Lamp", "details": "Brass", "sure": true}`,
			args:  []string{"recover", "--primary-field", "name", "--body-field", "details", "--confident-field", "sure"},
			want:  recovery.Result{PrimaryText: "Lamp", BodyText: "Brass", Confident: true, Path: recovery.PathStrict},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var got recovery.Result
			if err := json.Unmarshal([]byte(stdout), &got); err != nil {
				t.Fatalf("expected JSON output, got %q: %v", stdout, err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestRecoverCommand_Failure(t *testing.T) {
	stdout, stderr, err := execute(t, "Sorry, I cannot help with that request.", "recover", "--preview-length", "10")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, recovery.ErrRecoveryFailed) {
		t.Errorf("expected ErrRecoveryFailed, got %v", err)
	}
	if got := cli.ExitCode(err); got != cli.ExitRecovery {
		t.Errorf("expected exit code %d, got %d", cli.ExitRecovery, got)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "could not interpret AI output") {
		t.Errorf("expected failure message on stderr, got %q", stderr)
	}
	if !strings.Contains(stderr, "preview: Sorry, I c...") {
		t.Errorf("expected bounded preview on stderr, got %q", stderr)
	}
}

func TestRecoverCommand_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bracket mode", []string{"recover", "--bracket-mode", "lazy"}},
		{"duplicate fields", []string{"recover", "--primary-field", "specs"}},
		{"negative preview", []string{"recover", "--preview-length", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "{}", tt.args...)
			if got := cli.ExitCode(err); got != cli.ExitConfig {
				t.Errorf("expected exit code %d, got %d (%v)", cli.ExitConfig, got, err)
			}
		})
	}
}
