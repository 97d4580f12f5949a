package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"
)

// expiryWarning is how close to NotAfter a certificate is logged as expiring.
const expiryWarning = 30 * 24 * time.Hour

// ValidateCertificate checks that the leaf of cert is valid at now.
func ValidateCertificate(cert *tls.Certificate, now time.Time) error {
	if cert == nil {
		return fmt.Errorf("certificate is nil")
	}
	if len(cert.Certificate) == 0 {
		return fmt.Errorf("certificate chain is empty")
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	return ValidateX509Certificate(leaf, now)
}

// ValidateX509Certificate checks the validity window of cert.
func ValidateX509Certificate(cert *x509.Certificate, now time.Time) error {
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", cert.NotBefore.Format(time.RFC3339))
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate expired on %s", cert.NotAfter.Format(time.RFC3339))
	}
	return nil
}

// ExpiresSoon reports whether cert expires within 30 days of now, along with
// the whole days remaining.
func ExpiresSoon(cert *x509.Certificate, now time.Time) (bool, int) {
	remaining := cert.NotAfter.Sub(now)
	return remaining < expiryWarning, int(remaining.Hours() / 24)
}
