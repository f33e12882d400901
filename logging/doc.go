// Package logging provides a tiny abstraction over structured loggers so
// downstream code can depend on a minimal interface (Logger) while allowing
// users to plug any implementation. Adapters are provided for log/slog and
// go.uber.org/zap, plus a richer EngineLogger with contextual helpers
// (tenant, thread, component) for engine internals.
package logging
