package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// ErrConversion indicates a value was found for a setting but could not be
// converted to the setting's type.
var ErrConversion = errors.New("setting conversion failed")

// Resolver looks settings up in the environment, then the configuration
// file, then falls back to the caller's default.
type Resolver struct {
	lookupEnv  func(string) (string, bool)
	getwd      func() (string, error)
	configPath string
	logger     *zap.Logger

	once   sync.Once
	source Source

	record *Record
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for diagnostic notes.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithConfigPath overrides CONFIG_PATH and the working-directory default.
func WithConfigPath(path string) Option {
	return func(r *Resolver) {
		r.configPath = path
	}
}

// WithLookupEnv replaces os.LookupEnv, primarily for tests.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(r *Resolver) {
		r.lookupEnv = lookup
	}
}

// WithGetwd replaces os.Getwd, primarily for tests.
func WithGetwd(getwd func() (string, error)) Option {
	return func(r *Resolver) {
		r.getwd = getwd
	}
}

// NewResolver constructs a Resolver. The configuration file is not read
// until the first lookup.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		lookupEnv: os.LookupEnv,
		getwd:     os.Getwd,
		logger:    zap.NewNop(),
		record:    NewRecord(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.configPath == "" {
		r.configPath = defaultConfigPath(r.lookupEnv, r.getwd)
	} else {
		r.configPath = absPath(r.configPath)
	}
	return r
}

// ConfigPath returns the configuration file location consulted by the
// resolver, whether or not the file exists.
func (r *Resolver) ConfigPath() string {
	return r.configPath
}

// Source returns the parsed configuration file, loading it on first use.
// A missing or unparsable file yields an empty source.
func (r *Resolver) Source() Source {
	r.once.Do(func() {
		source, err := readSource(r.configPath)
		if err != nil {
			r.logger.Info("configuration file not provided or unreadable",
				zap.String("path", r.configPath),
				zap.Error(err),
			)
			r.source = emptySource()
			return
		}
		r.logger.Debug("configuration file loaded",
			zap.String("path", r.configPath),
			zap.Int("keys", source.Len()),
		)
		r.source = source
	})
	return r.source
}

// Record returns the diagnostic record of resolved settings.
func (r *Resolver) Record() *Record {
	return r.record
}

// lookup finds the raw value for name and reports which layer supplied it.
func (r *Resolver) lookup(name string) (string, Origin, bool) {
	if value, ok := r.lookupEnv(name); ok {
		return value, OriginEnv, true
	}
	if value, ok := r.Source().Lookup(name); ok {
		return value, OriginFile, true
	}
	return "", OriginDefault, false
}

// Resolve returns the value of the named setting. A value found in the
// environment or the file is converted with conv; otherwise def is returned
// unconverted. Conversion failures wrap ErrConversion and are not recorded.
func Resolve[T any](r *Resolver, name string, conv Converter[T], def T) (T, error) {
	raw, origin, found := r.lookup(name)

	value := def
	if found {
		parsed, err := conv.Parse(raw)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("%w: %s from %s: %w", ErrConversion, name, origin, err)
		}
		value = parsed
	}

	recorded := conv.Format(value)
	if found && conv.RecordRaw {
		recorded = raw
	}
	r.record.Put(name, recorded, origin)
	return value, nil
}

// ResolveString resolves a plain string setting. It cannot fail.
func (r *Resolver) ResolveString(name, def string) string {
	value, _ := Resolve(r, name, String, def)
	return value
}
