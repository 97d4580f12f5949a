/*
Package auth provides API key authentication for the conduit HTTP API.

Keys are declared in the server configuration and may reference secrets:

	server:
	  auth:
	    enabled: true
	    keys:
	      - name: ci
	        key: ${secret:conduit-ci-key}
	      - name: batch
	        key: sk-batch-0123
	        enabled: false   # revoked

Clients send the key as "Authorization: Bearer <key>" or "X-API-Key: <key>".

	keys := auth.NewKeySet(cfg.Server.Auth.Keys)
	mw := auth.NewMiddleware(keys, logger, nil)
	mux.Handle("/v1/", mw.Handle(api))

Inside a handler the caller is available from the context:

	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		logger.Info("request", "key_name", id.Name)
	}

Keys are held as SHA-256 digests and never logged.
*/
package auth
