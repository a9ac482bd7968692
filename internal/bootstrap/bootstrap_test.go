package bootstrap

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"telegram-ai-relay/internal/config"
)

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.AIConfig
		wantName string
		wantErr  bool
	}{
		{"openai", config.AIConfig{Provider: "openai", OpenAIKey: "sk"}, "openai", false},
		{"openai via session token", config.AIConfig{Provider: "openai", SessionToken: "tok"}, "openai", false},
		{"openai without credential", config.AIConfig{Provider: "openai"}, "", true},
		{"gemini", config.AIConfig{Provider: "gemini", GeminiKey: "g"}, "gemini", false},
		{"echo", config.AIConfig{Provider: "echo"}, "echo", false},
		{"unknown", config.AIConfig{Provider: "bard"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && b.Name() != tt.wantName {
				t.Fatalf("name = %q, want %q", b.Name(), tt.wantName)
			}
		})
	}
}

func TestNewMemberRepo_File(t *testing.T) {
	cfg := &config.Config{Members: config.MembersConfig{
		Backend: "file",
		Path:    filepath.Join(t.TempDir(), "members.txt"),
	}}
	repo, closeRepo, err := NewMemberRepo(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer closeRepo()

	ctx := context.Background()
	if err := repo.Save(ctx, []string{"Alice"}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Load(ctx)
	if err != nil || !reflect.DeepEqual(got, []string{"Alice"}) {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestNewMemberRepo_RedisNeedsClient(t *testing.T) {
	cfg := &config.Config{Members: config.MembersConfig{Backend: "redis"}}
	if _, _, err := NewMemberRepo(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error without redis client")
	}
}

func TestRun_UnknownVariant(t *testing.T) {
	// fails before any network call
	cfg := &config.Config{AI: config.AIConfig{Provider: "bard"}}
	if err := Run(context.Background(), cfg, Variant("x"), BuildInfo{}, nil); err == nil {
		t.Fatal("expected error")
	}
}
