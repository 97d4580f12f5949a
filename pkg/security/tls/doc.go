/*
Package tls serves the conduit HTTP API over TLS.

	server:
	  tls:
	    enabled: true
	    cert_file: /etc/conduit/tls/server.crt
	    key_file: /etc/conduit/tls/server.key
	    min_version: "1.3"
	    client_ca_file: /etc/conduit/tls/clients.pem   # optional, enables mTLS
	    reload_interval: 5m

The certificate pair is held by a CertificateReloader, which polls the files
and swaps in renewed certificates without a restart:

	reloader := tls.NewCertificateReloader(cfg.CertFile, cfg.KeyFile, cfg.ReloadInterval, logger)
	if err := reloader.Start(ctx); err != nil {
		return err
	}
	tlsConfig, err := tls.ServerConfig(cfg, reloader)

A reload that fails (unreadable, mismatched or expired pair) is logged and the
previous certificate keeps serving.
*/
package tls
