// Package log provides structured, context-aware logging with trace span
// correlation.
//
// Loggers are passed explicitly or through a context; there is no package
// level logger.
//
//	logger := log.NewZapLogger(log.Config{Format: "json", Level: log.LevelInfo})
//	ctx = log.SetContextLogger(ctx, logger.WithName("resolver"))
//
//	log.FromContext(ctx).Info("account resolved", "account", name, "keys", 2)
//
// When the context passed to SetContextLogger carries a valid OpenTelemetry
// span, the stored logger also records every entry as a span event and tags
// log lines with traceId and spanId.
//
// # Redaction
//
// Key material must never be logged. Values wrapped in Secret, and values
// stored under keys such as "private_key", "wif", "secret" or "token", are
// replaced by [REDACTED] before they reach any sink:
//
//	logger.Info("signer loaded", "wif", wif)              // wif=[REDACTED]
//	logger.Info("signer loaded", "key", log.Secret(wif))  // key=[REDACTED]
package log
