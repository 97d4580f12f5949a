package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/conduit/pkg/cli"
	tlsx "mercator-hq/conduit/pkg/security/tls"
)

func newCertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Manage TLS certificates for the HTTP server",
		Long: `Manage the certificates used when server.tls is enabled.

Subcommands:
  generate - Generate a self-signed certificate for testing
  check    - Check a certificate and key pair before deploying it`,
	}
	cmd.AddCommand(newCertsGenerateCmd(), newCertsCheckCmd())
	return cmd
}

type certsGenerateFlags struct {
	hosts    string
	org      string
	validity int
	keySize  int
	output   string
}

func newCertsGenerateCmd() *cobra.Command {
	flags := &certsGenerateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a self-signed certificate",
		Long: `Generate a self-signed certificate and RSA key for development.

Self-signed certificates are for testing only. In production use a
certificate from a trusted CA; the server reloads renewed files without a
restart.

Examples:
  conduit certs generate --host localhost
  conduit certs generate --host "localhost,127.0.0.1" --validity 30 --output certs/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCertsGenerate(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.hosts, "host", "localhost", "comma-separated hostnames and IPs")
	cmd.Flags().StringVar(&flags.org, "org", "Conduit", "organization name")
	cmd.Flags().IntVar(&flags.validity, "validity", 365, "validity in days")
	cmd.Flags().IntVar(&flags.keySize, "key-size", 2048, "RSA key size (2048, 3072, 4096)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "certs", "output directory")

	return cmd
}

func runCertsGenerate(cmd *cobra.Command, flags *certsGenerateFlags) error {
	if flags.keySize != 2048 && flags.keySize != 3072 && flags.keySize != 4096 {
		return fmt.Errorf("invalid key size: %d (must be 2048, 3072, or 4096)", flags.keySize)
	}
	if flags.validity <= 0 {
		return fmt.Errorf("validity must be positive, got %d", flags.validity)
	}

	var (
		hosts       []string
		dnsNames    []string
		ipAddresses []net.IP
	)
	for _, host := range strings.Split(flags.hosts, ",") {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		hosts = append(hosts, host)
		if ip := net.ParseIP(host); ip != nil {
			ipAddresses = append(ipAddresses, ip)
		} else {
			dnsNames = append(dnsNames, host)
		}
	}
	if len(hosts) == 0 {
		return fmt.Errorf("at least one host is required")
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, flags.keySize)
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now()
	notAfter := notBefore.AddDate(0, 0, flags.validity)
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{flags.org},
			CommonName:   hosts[0],
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ipAddresses,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	if err := os.MkdirAll(flags.output, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	certPath := filepath.Join(flags.output, "cert.pem")
	keyPath := filepath.Join(flags.output, "key.pem")

	if err := writePEMFile(certPath, "CERTIFICATE", der, 0o644); err != nil {
		return err
	}
	if err := writePEMFile(keyPath, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(privateKey), 0o600); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Certificate generated: %s\n", certPath)
	fmt.Fprintf(out, "✓ Private key generated: %s\n", keyPath)
	fmt.Fprintf(out, "  Hosts: %s\n", strings.Join(hosts, ", "))
	fmt.Fprintf(out, "  Valid until: %s\n\n", notAfter.Format("2006-01-02"))
	fmt.Fprintln(out, "⚠  Self-signed certificates are for testing only")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration snippet:")
	fmt.Fprintln(out, "server:")
	fmt.Fprintln(out, "  tls:")
	fmt.Fprintln(out, "    enabled: true")
	fmt.Fprintf(out, "    cert_file: %q\n", certPath)
	fmt.Fprintf(out, "    key_file: %q\n", keyPath)
	return nil
}

func writePEMFile(path, blockType string, der []byte, mode os.FileMode) error {
	// #nosec G304 - user-specified output path is expected for a CLI tool
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// certCheckResult describes a certificate pair that loaded and validated.
type certCheckResult struct {
	CertFile      string    `json:"cert_file"`
	Subject       string    `json:"subject"`
	Issuer        string    `json:"issuer"`
	DNSNames      []string  `json:"dns_names,omitempty"`
	IPAddresses   []string  `json:"ip_addresses,omitempty"`
	NotAfter      time.Time `json:"not_after"`
	DaysRemaining int       `json:"days_remaining"`
	ExpiresSoon   bool      `json:"expires_soon"`
	ChainVerified bool      `json:"chain_verified"`
}

func (r certCheckResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "✓ %s is valid\n", r.CertFile)
	fmt.Fprintf(w, "  Subject: %s\n", r.Subject)
	fmt.Fprintf(w, "  Issuer: %s\n", r.Issuer)
	if len(r.DNSNames) > 0 {
		fmt.Fprintf(w, "  DNS names: %s\n", strings.Join(r.DNSNames, ", "))
	}
	if len(r.IPAddresses) > 0 {
		fmt.Fprintf(w, "  IP addresses: %s\n", strings.Join(r.IPAddresses, ", "))
	}
	fmt.Fprintf(w, "  Valid until: %s (%d days)\n", r.NotAfter.Format("2006-01-02"), r.DaysRemaining)
	if r.ChainVerified {
		fmt.Fprintln(w, "✓ Chain verified against CA")
	}
	if r.ExpiresSoon {
		fmt.Fprintf(w, "⚠  Certificate expires in %d days\n", r.DaysRemaining)
	}
	return nil
}

type certsCheckFlags struct {
	certFile string
	keyFile  string
	caFile   string
	format   string
}

func newCertsCheckCmd() *cobra.Command {
	flags := &certsCheckFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a certificate and key pair",
		Long: `Check that a certificate and key match, that the certificate is within its
validity window and, with --ca, that it chains to the given CA. These are
the checks the server runs when it loads or reloads the pair.

Examples:
  conduit certs check --cert server.crt --key server.key
  conduit certs check --cert server.crt --key server.key --ca ca.pem --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCertsCheck(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.certFile, "cert", "", "certificate file (required)")
	cmd.Flags().StringVar(&flags.keyFile, "key", "", "private key file (required)")
	cmd.Flags().StringVar(&flags.caFile, "ca", "", "CA bundle to verify the chain against")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json")
	_ = cmd.MarkFlagRequired("cert")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func runCertsCheck(cmd *cobra.Command, flags *certsCheckFlags) error {
	format, err := cli.ParseFormat(flags.format)
	if err != nil {
		return err
	}

	pair, err := tls.LoadX509KeyPair(flags.certFile, flags.keyFile)
	if err != nil {
		return cli.NewCommandError("certs check", fmt.Errorf("certificate and key do not load: %w", err))
	}
	now := time.Now()
	if err := tlsx.ValidateCertificate(&pair, now); err != nil {
		return cli.NewCommandError("certs check", err)
	}
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return cli.NewCommandError("certs check", err)
	}

	result := certCheckResult{
		CertFile: flags.certFile,
		Subject:  leaf.Subject.String(),
		Issuer:   leaf.Issuer.String(),
		DNSNames: leaf.DNSNames,
		NotAfter: leaf.NotAfter,
	}
	for _, ip := range leaf.IPAddresses {
		result.IPAddresses = append(result.IPAddresses, ip.String())
	}
	result.ExpiresSoon, result.DaysRemaining = tlsx.ExpiresSoon(leaf, now)

	if flags.caFile != "" {
		pool, err := tlsx.LoadCertPool(flags.caFile)
		if err != nil {
			return cli.NewCommandError("certs check", err)
		}
		if _, err := leaf.Verify(x509.VerifyOptions{
			Roots:       pool,
			CurrentTime: now,
			KeyUsages:   []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		}); err != nil {
			return cli.NewCommandError("certs check", fmt.Errorf("certificate chain validation failed: %w", err))
		}
		result.ChainVerified = true
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)
}
