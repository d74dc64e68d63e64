// Package engineconfig holds the ten recognised configuration keys the
// entity-iterable cache reads (spec.md §6), using the teacher's
// func(any)-typed functional option pattern (massifs/options.go) rather
// than a struct literal: Options type-asserts to its concrete *Options
// target so the same Option type could in principle be shared with other
// configuration surfaces in the module.
package engineconfig

import "time"

// Options holds the ten recognised keys from spec.md §6's configuration
// table.
type Options struct {
	EntityIterableCacheSize                 int
	EntityIterableCacheCountsCacheSize      int
	EntityIterableCacheThreadCount          int
	EntityIterableCacheDeferredDelay        time.Duration
	EntityIterableCacheCachingTimeout       time.Duration
	EntityIterableCacheCountsCachingTimeout time.Duration
	EntityIterableCacheStartCachingTimeout  time.Duration
	EnvMonitorTxnsCheckFreq                 time.Duration
	IsCachingDisabled                       bool
	EntityIterableCacheUseHumanReadable     bool
}

// defaults mirror the scale of the teacher's own massif-height/cache-size
// defaults: small enough to be harmless under test, large enough to be
// usable out of the box.
func defaults() Options {
	return Options{
		EntityIterableCacheSize:                 4096,
		EntityIterableCacheCountsCacheSize:      4096,
		EntityIterableCacheThreadCount:          4,
		EntityIterableCacheDeferredDelay:        500 * time.Millisecond,
		EntityIterableCacheCachingTimeout:       30 * time.Second,
		EntityIterableCacheCountsCachingTimeout: 10 * time.Second,
		EntityIterableCacheStartCachingTimeout:  5 * time.Second,
		EnvMonitorTxnsCheckFreq:                 60 * time.Second,
		IsCachingDisabled:                       false,
		EntityIterableCacheUseHumanReadable:     false,
	}
}

// Option is a generic option type, matching the teacher's StorageOptions
// pattern: implementations type-assert to their target record and ignore
// opts that are not an *Options.
type Option func(any)

// New builds an Options from the defaults plus opts applied in order.
func New(opts ...Option) Options {
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithEntityIterableCacheSize(n int) Option {
	return func(target any) {
		if o, ok := target.(*Options); ok {
			o.EntityIterableCacheSize = n
		}
	}
}

func WithEntityIterableCacheCountsCacheSize(n int) Option {
	return func(target any) {
		if o, ok := target.(*Options); ok {
			o.EntityIterableCacheCountsCacheSize = n
		}
	}
}

func WithEntityIterableCacheThreadCount(n int) Option {
	return func(target any) {
		if o, ok := target.(*Options); ok {
			o.EntityIterableCacheThreadCount = n
		}
	}
}

func WithEntityIterableCacheDeferredDelay(d time.Duration) Option {
	return func(target any) {
		if o, ok := target.(*Options); ok {
			o.EntityIterableCacheDeferredDelay = d
		}
	}
}

func WithEntityIterableCacheCachingTimeout(d time.Duration) Option {
	return func(target any) {
		if o, ok := target.(*Options); ok {
			o.EntityIterableCacheCachingTimeout = d
		}
	}
}

func WithEntityIterableCacheCountsCachingTimeout(d time.Duration) Option {
	return func(target any) {
		if o, ok := target.(*Options); ok {
			o.EntityIterableCacheCountsCachingTimeout = d
		}
	}
}

func WithEntityIterableCacheStartCachingTimeout(d time.Duration) Option {
	return func(target any) {
		if o, ok := target.(*Options); ok {
			o.EntityIterableCacheStartCachingTimeout = d
		}
	}
}

func WithEnvMonitorTxnsCheckFreq(d time.Duration) Option {
	return func(target any) {
		if o, ok := target.(*Options); ok {
			o.EnvMonitorTxnsCheckFreq = d
		}
	}
}

func WithCachingDisabled(disabled bool) Option {
	return func(target any) {
		if o, ok := target.(*Options); ok {
			o.IsCachingDisabled = disabled
		}
	}
}

func WithHumanReadableTelemetry(enabled bool) Option {
	return func(target any) {
		if o, ok := target.(*Options); ok {
			o.EntityIterableCacheUseHumanReadable = enabled
		}
	}
}
