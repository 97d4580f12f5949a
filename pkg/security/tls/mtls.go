package tls

import "net/http"

// ClientCommonName returns the subject common name of the verified client
// certificate, or "" when the request carries none.
func ClientCommonName(r *http.Request) string {
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		return ""
	}
	return r.TLS.PeerCertificates[0].Subject.CommonName
}
