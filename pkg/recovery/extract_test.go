package recovery

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "  {\"a\":1}  ", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"unclosed fence", "```json\n{\"a\":1", `{"a":1`},
		{"bom", "\uFEFF{\"a\":1}", `{"a":1}`},
		{"crlf fence", "```json\r\n{\"a\":1}\r\n```", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGreedyCandidate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`no braces`, ""},
		{`} backwards {`, ""},
		{`pre {"a":1} post`, `{"a":1}`},
		{`{"a":{"b":1}} and {"c":2}`, `{"a":{"b":1}} and {"c":2}`},
		{`{"a":1`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := greedyCandidate(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBalancedCandidates(t *testing.T) {
	got := balancedCandidates(`x {a} {"k": "}"} {open`)
	want := []string{`{a}`, `{"k": "}"}`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("balancedCandidates mismatch (-want +got):\n%s", diff)
	}
}

func TestRepairEscapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newline in value", "{\"a\": \"x\ny\"}", `{"a": "x\ny"}`},
		{"carriage return", "{\"a\": \"x\r\ny\"}", `{"a": "x\r\ny"}`},
		{"whitespace outside strings kept", "{\n\"a\": \"x\"\n}", "{\n\"a\": \"x\"\n}"},
		{"escaped quote kept", "{\"a\": \"say \\\"hi\\\"\ny\"}", `{"a": "say \"hi\"\ny"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repairEscapes(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
