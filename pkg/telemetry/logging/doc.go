// Package logging builds structured slog loggers with secret redaction.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//
//	logger.Info("provider configured",
//	    "provider", "openai",
//	    "api_key", "sk-abc123xyz", // logged as "sk-a***"
//	)
//
// # Context fields
//
// Request scoped fields travel in the context and are attached with
// FromContext:
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logging.FromContext(ctx, logger).Info("routing") // includes request_id
package logging
