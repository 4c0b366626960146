package astrolog

// Builder provides a fluent API for building logger configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg *Config
	err error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a new Logger on its own registry with the built
// configuration. Use BuildOn to share a registry between loggers.
func (b *Builder) Build() (*Logger, error) {
	return b.BuildOn(nil)
}

// BuildOn creates a new Logger on the given registry.
func (b *Builder) BuildOn(registry *Registry) (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewLogger(b.cfg, registry)
}

// Name sets the logger display name.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// Template sets the format template.
func (b *Builder) Template(template string) *Builder {
	b.cfg.Template = template
	return b
}

// FilePrefix sets the log file name prefix.
func (b *Builder) FilePrefix(prefix string) *Builder {
	b.cfg.FilePrefix = prefix
	return b
}

// LogsDirectory sets the general log directory.
func (b *Builder) LogsDirectory(dir string) *Builder {
	b.cfg.LogsDirectory = dir
	return b
}

// CrashesDirectory sets the crash file directory.
func (b *Builder) CrashesDirectory(dir string) *Builder {
	b.cfg.CrashesDirectory = dir
	return b
}

// MinSeverity sets the severity floor from a name.
func (b *Builder) MinSeverity(name string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := ParseSeverity(name); err != nil {
		b.err = err
		return b
	}
	b.cfg.MinSeverity = name
	return b
}

// EnableConsole toggles console delivery.
func (b *Builder) EnableConsole(enable bool) *Builder {
	b.cfg.EnableConsole = enable
	return b
}

// ConsoleTarget selects "stdout" or "stderr".
func (b *Builder) ConsoleTarget(target string) *Builder {
	b.cfg.ConsoleTarget = target
	return b
}

// EnableFile toggles file delivery.
func (b *Builder) EnableFile(enable bool) *Builder {
	b.cfg.EnableFile = enable
	return b
}

// Async toggles dispatch through the background queue.
func (b *Builder) Async(async bool) *Builder {
	b.cfg.Async = async
	return b
}

// QueueSize sets the dispatch queue capacity.
func (b *Builder) QueueSize(size int64) *Builder {
	b.cfg.QueueSize = size
	return b
}

// EnqueueWaitMs sets the bounded wait budget for Enqueue.
func (b *Builder) EnqueueWaitMs(ms int64) *Builder {
	b.cfg.EnqueueWaitMs = ms
	return b
}

// MaxRecordsPerSec caps queue admission, 0 means unlimited.
func (b *Builder) MaxRecordsPerSec(n int64) *Builder {
	b.cfg.MaxRecordsPerSec = n
	return b
}

// WriteTimeoutMs sets the shared-channel write lock budget.
func (b *Builder) WriteTimeoutMs(ms int64) *Builder {
	b.cfg.WriteTimeoutMs = ms
	return b
}

// MaxLogFiles sets the rotation limit for general logs.
func (b *Builder) MaxLogFiles(max int64) *Builder {
	b.cfg.MaxLogFiles = max
	return b
}

// MaxCrashFiles sets the rotation limit for crash files.
func (b *Builder) MaxCrashFiles(max int64) *Builder {
	b.cfg.MaxCrashFiles = max
	return b
}
