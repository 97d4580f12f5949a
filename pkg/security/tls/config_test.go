package tls

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/conduit/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{in: "1.3", want: tls.VersionTLS13},
		{in: "", want: tls.VersionTLS13},
		{in: "1.2", want: tls.VersionTLS12},
		{in: "1.1", wantErr: true},
		{in: "tls13", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseVersion(%q) = %x, want %x", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadCertPool(t *testing.T) {
	dir := t.TempDir()
	ca := generateCert(t, certOptions{commonName: "ca", isCA: true})
	caFile, _ := ca.writePair(t, dir, "ca")

	if _, err := LoadCertPool(caFile); err != nil {
		t.Errorf("LoadCertPool() error = %v", err)
	}

	bogus := filepath.Join(dir, "bogus.pem")
	if err := os.WriteFile(bogus, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCertPool(bogus); err == nil {
		t.Error("expected error for PEM without certificates")
	}
	if _, err := LoadCertPool(filepath.Join(dir, "missing.pem")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestServerConfig(t *testing.T) {
	dir := t.TempDir()
	server := generateCert(t, certOptions{commonName: "localhost"})
	certFile, keyFile := server.writePair(t, dir, "server")
	ca := generateCert(t, certOptions{commonName: "clients", isCA: true})
	caFile, _ := ca.writePair(t, dir, "ca")

	reloader := NewCertificateReloader(certFile, keyFile, 0, discardLogger())
	if err := reloader.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	t.Run("tls only", func(t *testing.T) {
		cfg, err := ServerConfig(config.TLSConfig{Enabled: true, MinVersion: "1.2"}, reloader)
		if err != nil {
			t.Fatalf("ServerConfig() error = %v", err)
		}
		if cfg.MinVersion != tls.VersionTLS12 {
			t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
		}
		if cfg.ClientAuth != tls.NoClientCert {
			t.Errorf("ClientAuth = %v, want NoClientCert", cfg.ClientAuth)
		}
		cert, err := cfg.GetCertificate(&tls.ClientHelloInfo{})
		if err != nil || cert == nil {
			t.Fatalf("GetCertificate() = %v, %v", cert, err)
		}
	})

	t.Run("mutual tls", func(t *testing.T) {
		cfg, err := ServerConfig(config.TLSConfig{Enabled: true, MinVersion: "1.3", ClientCAFile: caFile}, reloader)
		if err != nil {
			t.Fatalf("ServerConfig() error = %v", err)
		}
		if cfg.ClientAuth != tls.RequireAndVerifyClientCert {
			t.Errorf("ClientAuth = %v, want RequireAndVerifyClientCert", cfg.ClientAuth)
		}
		if cfg.ClientCAs == nil {
			t.Error("ClientCAs not set")
		}
	})

	t.Run("errors", func(t *testing.T) {
		if _, err := ServerConfig(config.TLSConfig{MinVersion: "1.0"}, reloader); err == nil {
			t.Error("expected error for TLS 1.0")
		}
		if _, err := ServerConfig(config.TLSConfig{ClientCAFile: filepath.Join(dir, "nope.pem")}, reloader); err == nil {
			t.Error("expected error for missing client CA")
		}
		if _, err := ServerConfig(config.TLSConfig{}, nil); err == nil {
			t.Error("expected error for nil reloader")
		}
	})
}

// TestServerConfig_Handshake serves HTTPS with a client CA and checks that
// only clients with a certificate signed by it get through.
func TestServerConfig_Handshake(t *testing.T) {
	dir := t.TempDir()
	server := generateCert(t, certOptions{commonName: "localhost"})
	certFile, keyFile := server.writePair(t, dir, "server")
	ca := generateCert(t, certOptions{commonName: "clients", isCA: true})
	caFile, _ := ca.writePair(t, dir, "ca")
	client := generateCert(t, certOptions{commonName: "batch-job", client: true, parent: ca})

	reloader := NewCertificateReloader(certFile, keyFile, 0, discardLogger())
	if err := reloader.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	serverConfig, err := ServerConfig(config.TLSConfig{MinVersion: "1.3", ClientCAFile: caFile}, reloader)
	if err != nil {
		t.Fatalf("ServerConfig() error = %v", err)
	}

	ln, err := tls.Listen("tcp", "127.0.0.1:0", serverConfig)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, ClientCommonName(r))
		}),
		ReadHeaderTimeout: time.Second,
		ErrorLog:          slog.NewLogLogger(discardLogger().Handler(), slog.LevelError),
	}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })

	roots := x509.NewCertPool()
	roots.AddCert(server.cert)
	url := "https://" + ln.Addr().String() + "/"

	newClient := func(certs ...tls.Certificate) *http.Client {
		return &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{TLSClientConfig: &tls.Config{
				RootCAs:      roots,
				Certificates: certs,
				MinVersion:   tls.VersionTLS13,
			}},
		}
	}

	resp, err := newClient(tls.Certificate{
		Certificate: [][]byte{client.der},
		PrivateKey:  client.key,
	}).Get(url)
	if err != nil {
		t.Fatalf("request with client certificate: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "batch-job" {
		t.Errorf("client common name = %q, want batch-job", body)
	}

	resp, err = newClient().Get(url)
	if err == nil {
		resp.Body.Close()
		t.Fatal("request without client certificate should fail")
	}
}

func TestClientCommonName_PlainHTTP(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "http://localhost/", nil)
	if got := ClientCommonName(r); got != "" {
		t.Errorf("ClientCommonName() = %q, want empty", got)
	}
}

func TestGetCertificateFunc_BeforeStart(t *testing.T) {
	reloader := NewCertificateReloader("a.crt", "a.key", 0, discardLogger())
	if reloader.GetCertificate() != nil {
		t.Error("GetCertificate() before Start should be nil")
	}
	if _, err := reloader.GetCertificateFunc()(&tls.ClientHelloInfo{}); !errors.Is(err, ErrNoCertificate) {
		t.Errorf("GetCertificateFunc() error = %v, want ErrNoCertificate", err)
	}
}
