// Package logging provides the global zerolog-based structured logger for
// timingsrc. It supports JSON output for production and console output for
// development, configured once at startup via Init.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("user", "alice").Msg("login successful")
//	logging.Error().Err(err).Int("code", 500).Msg("request failed")
//
// # Configuration
//
//	logging.Init(logging.Config{
//	    Level:     "debug",    // trace, debug, info, warn, error, fatal, panic
//	    Format:    "console",  // json or console
//	    Caller:    true,       // include caller info
//	    Timestamp: true,       // include timestamps
//	    Output:    os.Stderr,  // output writer
//	})
//
// # Structured Logging
//
// Always terminate a log chain with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // correct
//	logging.Info().Str("key", "value")                 // wrong - never emitted
//
// # Output Formats
//
// JSON (production):
//
//	{"level":"info","time":"2026-01-03T10:30:00Z","message":"server starting","port":3857}
//
// Console (development):
//
//	10:30:00 INF server starting port=3857
//
// # Thread Safety
//
// All exported functions are safe for concurrent use; the global logger is
// protected by a sync.RWMutex for reconfiguration via Init.
//
// # See Also
//
//   - github.com/rs/zerolog: underlying logging library
//   - internal/supervisor: bridges suture's event hook to *slog.Logger via
//     github.com/thejerf/sutureslog, independent of this package
package logging
