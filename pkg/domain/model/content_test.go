package model_test

import (
	"testing"

	"github.com/Rubix982/triage/pkg/domain/model"
)

func TestNormalizeBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "CRLF collapses to LF",
			in:   "line one\r\nline two",
			want: "line one\nline two",
		},
		{
			name: "trailing whitespace per line is stripped",
			in:   "line one   \nline two\t",
			want: "line one\nline two",
		},
		{
			name: "outer whitespace is trimmed",
			in:   "\n\n  body  \n\n",
			want: "body",
		},
		{
			name: "case is preserved",
			in:   "CamelCase Stays",
			want: "CamelCase Stays",
		},
		{
			name: "interior blank lines survive",
			in:   "para one\n\npara two",
			want: "para one\n\npara two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := model.NormalizeBody(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHashBody(t *testing.T) {
	t.Run("formatting-only variants hash identically", func(t *testing.T) {
		a := model.HashBody("line one\r\nline two  ")
		b := model.HashBody("line one\nline two")
		if a != b {
			t.Errorf("expected identical hashes, got %s and %s", a, b)
		}
	})

	t.Run("semantic changes hash differently", func(t *testing.T) {
		a := model.HashBody("line one")
		b := model.HashBody("line two")
		if a == b {
			t.Error("expected different hashes for different bodies")
		}
	})

	t.Run("hash is hex-encoded SHA-256", func(t *testing.T) {
		if got := len(model.HashBody("body")); got != 64 {
			t.Errorf("expected 64 hex chars, got %d", got)
		}
	})
}
