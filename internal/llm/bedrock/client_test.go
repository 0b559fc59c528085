package bedrock

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"chatrelay/internal/domain"
)

func TestDecodeCompletion(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{
			name:    "valid payload",
			payload: `{"completion": "hello there"}`,
			want:    "hello there",
		},
		{
			name:    "payload with extra fields",
			payload: `{"completion": "hi", "stop_reason": "max_tokens"}`,
			want:    "hi",
		},
		{
			name:    "non-JSON payload",
			payload: `<html>Bad Gateway</html>`,
			wantErr: true,
		},
		{
			name:    "well-formed payload without completion",
			payload: `{"stop_reason": "max_tokens"}`,
			wantErr: true,
		},
		{
			name:    "empty completion",
			payload: `{"completion": ""}`,
			wantErr: true,
		},
		{
			name:    "empty payload",
			payload: ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeCompletion([]byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, domain.ErrUpstream) {
					t.Fatalf("expected ErrUpstream, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantErr  bool
	}{
		{
			name: "fully configured",
			settings: Settings{
				Region:          "us-east-1",
				AccessKeyID:     "AKIA_TEST",
				SecretAccessKey: "secret",
				ModelID:         "anthropic.claude-v2",
			},
		},
		{
			name: "missing access key",
			settings: Settings{
				Region:          "us-east-1",
				SecretAccessKey: "secret",
				ModelID:         "anthropic.claude-v2",
			},
			wantErr: true,
		},
		{
			name: "missing secret key",
			settings: Settings{
				Region:      "us-east-1",
				AccessKeyID: "AKIA_TEST",
				ModelID:     "anthropic.claude-v2",
			},
			wantErr: true,
		},
		{
			name: "missing region",
			settings: Settings{
				AccessKeyID:     "AKIA_TEST",
				SecretAccessKey: "secret",
				ModelID:         "anthropic.claude-v2",
			},
			wantErr: true,
		},
		{
			name: "missing model id",
			settings: Settings{
				Region:          "us-east-1",
				AccessKeyID:     "AKIA_TEST",
				SecretAccessKey: "secret",
			},
			wantErr: true,
		},
		{
			name:     "nothing configured",
			settings: Settings{},
			wantErr:  true,
		},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{settings: tt.settings, logger: logger}
			err := client.Ready()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrConfig) {
					t.Fatalf("expected ErrConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
