package secrets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/conduit/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mapProvider serves secrets from a map and counts lookups.
type mapProvider struct {
	name    string
	values  map[string]string
	fail    error
	calls   atomic.Int64
	release chan struct{}
}

func (p *mapProvider) Get(_ context.Context, name string) (string, error) {
	p.calls.Add(1)
	if p.release != nil {
		<-p.release
	}
	if p.fail != nil {
		return "", p.fail
	}
	if v, ok := p.values[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (p *mapProvider) Name() string { return p.name }

func TestManager_GetOrder(t *testing.T) {
	first := &mapProvider{name: "first", values: map[string]string{"a": "from-first"}}
	second := &mapProvider{name: "second", values: map[string]string{"a": "from-second", "b": "only-second"}}
	m := NewManager([]Provider{first, second}, 0, discardLogger())

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "a", want: "from-first"},
		{name: "b", want: "only-second"},
		{name: "c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Get(context.Background(), tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Get() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
			if got != tt.want {
				t.Errorf("Get() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestManager_ProviderFailureFallsThrough(t *testing.T) {
	broken := &mapProvider{name: "broken", fail: errors.New("permission denied")}
	env := &mapProvider{name: "env", values: map[string]string{"k": "v"}}
	m := NewManager([]Provider{broken, env}, 0, discardLogger())

	got, err := m.Get(context.Background(), "k")
	if err != nil || got != "v" {
		t.Fatalf("Get() = %q, %v, want v", got, err)
	}
}

func TestManager_NoProviders(t *testing.T) {
	m := NewManager(nil, 0, discardLogger())
	if _, err := m.Get(context.Background(), "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestManager_Cache(t *testing.T) {
	p := &mapProvider{name: "map", values: map[string]string{"k": "v1"}}
	m := NewManager([]Provider{p}, time.Minute, discardLogger())

	for i := 0; i < 3; i++ {
		if got, _ := m.Get(context.Background(), "k"); got != "v1" {
			t.Fatalf("Get() = %q, want v1", got)
		}
	}
	if p.calls.Load() != 1 {
		t.Errorf("provider called %d times, want 1", p.calls.Load())
	}

	p.values["k"] = "v2"
	m.Purge()
	if got, _ := m.Get(context.Background(), "k"); got != "v2" {
		t.Errorf("Get() after Purge = %q, want v2", got)
	}

	uncached := NewManager([]Provider{p}, 0, discardLogger())
	before := p.calls.Load()
	_, _ = uncached.Get(context.Background(), "k")
	_, _ = uncached.Get(context.Background(), "k")
	if p.calls.Load()-before != 2 {
		t.Errorf("uncached provider called %d times, want 2", p.calls.Load()-before)
	}
}

func TestManager_CollapsesConcurrentLookups(t *testing.T) {
	p := &mapProvider{name: "slow", values: map[string]string{"k": "v"}, release: make(chan struct{})}
	m := NewManager([]Provider{p}, 0, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := m.Get(context.Background(), "k"); err != nil || got != "v" {
				t.Errorf("Get() = %q, %v", got, err)
			}
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(p.release)
	wg.Wait()

	if p.calls.Load() >= 10 {
		t.Errorf("provider called %d times, want lookups collapsed", p.calls.Load())
	}
}

func TestManager_Resolve(t *testing.T) {
	p := &mapProvider{name: "map", values: map[string]string{"a": "A", "b": "B"}}
	m := NewManager([]Provider{p}, time.Minute, discardLogger())

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "plain-value", want: "plain-value"},
		{in: "${secret:a}", want: "A"},
		{in: "Bearer ${secret:a}-${secret:b}", want: "Bearer A-B"},
		{in: "${secret:a}${secret:missing}", want: "A${secret:missing}", wantErr: true},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := m.Resolve(context.Background(), tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestManager_ResolveConfig(t *testing.T) {
	p := &mapProvider{name: "map", values: map[string]string{
		"openai": "sk-openai",
		"ci":     "sk-ci",
	}}
	m := NewManager([]Provider{p}, time.Minute, discardLogger())

	cfg := &config.Config{
		Providers: []config.ProviderConfig{
			{Name: "openai", APIKey: "${secret:openai}"},
			{Name: "local", APIKey: "literal"},
			{Name: "none"},
		},
		Server: config.ServerConfig{Auth: config.AuthConfig{
			Keys: []config.APIKeyConfig{{Name: "ci", Key: "${secret:ci}"}},
		}},
	}

	if err := m.ResolveConfig(context.Background(), cfg); err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}
	if cfg.Providers[0].APIKey != "sk-openai" || cfg.Providers[1].APIKey != "literal" || cfg.Providers[2].APIKey != "" {
		t.Errorf("provider keys = %q, %q, %q", cfg.Providers[0].APIKey, cfg.Providers[1].APIKey, cfg.Providers[2].APIKey)
	}
	if cfg.Server.Auth.Keys[0].Key != "sk-ci" {
		t.Errorf("auth key = %q, want sk-ci", cfg.Server.Auth.Keys[0].Key)
	}

	bad := &config.Config{
		Providers: []config.ProviderConfig{{Name: "x", APIKey: "${secret:nope}"}},
		Server: config.ServerConfig{Auth: config.AuthConfig{
			Keys: []config.APIKeyConfig{{Name: "y", Key: "${secret:gone}"}},
		}},
	}
	err := m.ResolveConfig(context.Background(), bad)
	if err == nil {
		t.Fatal("expected error for unresolvable references")
	}
	for _, field := range []string{"providers[0].api_key", "server.auth.keys[0].key"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not name %s", err, field)
		}
	}
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "shared", "from-file", 0o600)
	t.Setenv("TEST_SECRET_SHARED", "from-env")
	t.Setenv("TEST_SECRET_ENV_ONLY", "env-only")

	m, err := FromConfig(config.SecretsConfig{
		EnvPrefix: "TEST_SECRET_",
		Directory: dir,
		CacheTTL:  time.Minute,
	}, discardLogger())
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}

	if got, _ := m.Get(context.Background(), "shared"); got != "from-file" {
		t.Errorf("Get(shared) = %q, want from-file", got)
	}
	if got, _ := m.Get(context.Background(), "env-only"); got != "env-only" {
		t.Errorf("Get(env-only) = %q, want env-only", got)
	}

	if _, err := FromConfig(config.SecretsConfig{Directory: dir + "/missing"}, discardLogger()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestHasReference(t *testing.T) {
	if !HasReference("${secret:x}") || HasReference("$secret:x") || HasReference("{secret:x}") {
		t.Error("HasReference mismatch")
	}
}
