// Package logger wraps zap for the alarm portal:
//   - a global sugared logger used when a context carries none,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level and encoder format parsing,
//   - leveled helpers (Debugf, InfoKV, ErrorKV, etc.) that read the context.
//
// Components never hold a logger of their own: they take a context and log
// through it, so callers decide naming, fields and the sink.
package logger
