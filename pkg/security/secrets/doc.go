/*
Package secrets resolves ${secret:name} references in the configuration.

Provider API keys and server API keys may name a secret instead of carrying
the value:

	secrets:
	  env_prefix: CONDUIT_SECRET_
	  directory: /var/run/secrets/conduit
	  cache_ttl: 5m

	providers:
	  - name: openai
	    type: openai
	    api_key: ${secret:openai-api-key}

Lookups try the secrets directory first (one file per secret, mode 0600 or
0400) and then the environment, where "openai-api-key" is read from
CONDUIT_SECRET_OPENAI_API_KEY.

	mgr, err := secrets.FromConfig(cfg.Secrets, logger)
	if err != nil {
		return err
	}
	if err := mgr.ResolveConfig(ctx, cfg); err != nil {
		return err
	}

Values are cached in an expiring LRU and never logged.
*/
package secrets
