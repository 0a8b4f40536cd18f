// Package logging provides structured logging for sysmqtt.
//
// Built on the standard library's log/slog, it adds:
//   - Level parsing from configuration strings
//   - JSON or text output selection
//   - Default service/version fields on every record
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("connected", "broker", "localhost:1883")
//
// Components receive a child logger via With so that every record
// carries a component field:
//
//	schedLog := log.With("component", "scheduler")
package logging
