package hmso

import "log/slog"

// Config carries the optimization level and worker-pool size for one
// HMSO stage run, mirroring ir/opt.Config's level-keyed-defaults shape.
type Config struct {
	Level      Level
	NumWorkers int
}

// NewConfig returns the Config for the given optimization level, with
// NumWorkers left at 0 (RunChunkWorkerPool's "use runtime.NumCPU()"
// default) since the HMSO stage has no opcode-count reason to scale
// worker count with level the way iteration caps do.
func NewConfig(level Level) Config {
	return Config{Level: level}
}

// logOrDefault returns logger, or the package default if the caller
// passed nil, so every hmso stage constructor threads a logger per the
// "explicit context object, never a package-level global" design note
// without forcing every caller (and every existing test) to supply one.
func logOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
