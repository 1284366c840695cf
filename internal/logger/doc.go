// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - leveled helpers (Debugf, InfoKV, WarnKV, etc.).
//
// Services accept a context and extract the logger from it, so every command
// handler logs with its own name and request fields.
package logger
