package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCertsGenerateAndCheck(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "certs", "generate", "--host", "localhost,127.0.0.1", "--validity", "10", "--output", dir)
	if err != nil {
		t.Fatalf("certs generate: %v", err)
	}
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	if !strings.Contains(out, certPath) || !strings.Contains(out, "cert_file:") {
		t.Errorf("unexpected output:\n%s", out)
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("stat key: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("key mode = %o, want 600", info.Mode().Perm())
	}

	out, err = execute(t, "certs", "check", "--cert", certPath, "--key", keyPath, "--ca", certPath, "--format", "json")
	if err != nil {
		t.Fatalf("certs check: %v", err)
	}

	var result certCheckResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !result.ChainVerified {
		t.Error("self-signed certificate should verify against itself")
	}
	if !result.ExpiresSoon || result.DaysRemaining > 10 {
		t.Errorf("10-day certificate: expires_soon=%v days=%d", result.ExpiresSoon, result.DaysRemaining)
	}
	if len(result.DNSNames) != 1 || result.DNSNames[0] != "localhost" {
		t.Errorf("dns names = %v", result.DNSNames)
	}
	if len(result.IPAddresses) != 1 || result.IPAddresses[0] != "127.0.0.1" {
		t.Errorf("ip addresses = %v", result.IPAddresses)
	}

	text, err := execute(t, "certs", "check", "--cert", certPath, "--key", keyPath)
	if err != nil {
		t.Fatalf("certs check text: %v", err)
	}
	if !strings.Contains(text, "is valid") || !strings.Contains(text, "expires in") {
		t.Errorf("unexpected text output:\n%s", text)
	}
}

func TestCertsCheck_Mismatch(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	for _, dir := range []string{a, b} {
		if _, err := execute(t, "certs", "generate", "--output", dir); err != nil {
			t.Fatalf("certs generate: %v", err)
		}
	}

	_, err := execute(t, "certs", "check",
		"--cert", filepath.Join(a, "cert.pem"),
		"--key", filepath.Join(b, "key.pem"))
	if err == nil {
		t.Fatal("expected error for mismatched pair")
	}
}

func TestCertsGenerate_InvalidFlags(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "certs", "generate", "--key-size", "1024", "--output", dir); err == nil {
		t.Error("expected error for 1024-bit key")
	}
	if _, err := execute(t, "certs", "generate", "--host", " , ", "--output", dir); err == nil {
		t.Error("expected error for empty host list")
	}
}
