package authvault

import (
	"errors"
	"regexp"
	"time"

	"github.com/authvault/authvault/authfile"
	internalaudit "github.com/authvault/authvault/internal/audit"
	internalmetrics "github.com/authvault/authvault/internal/metrics"
	"github.com/authvault/authvault/internal/rate"
	"github.com/authvault/authvault/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Configure it during initialization and call
// Build exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	auditSink  AuditSink
	loginHook  LifecycleHook
	logoutHook LifecycleHook
	clock      func() time.Time

	built bool
}

// New creates a Builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis switches cooldown tracking to a shared Redis backend, letting
// multiple instances enforce one brute-force throttle. Without it cooldown
// state is per-process.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the sink receiving audit events. Auditing also requires
// Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLoginHook registers a hook invoked after every successful login.
func (b *Builder) WithLoginHook(hook LifecycleHook) *Builder {
	b.loginHook = hook
	return b
}

// WithLogoutHook registers a hook invoked before every logout.
func (b *Builder) WithLogoutHook(hook LifecycleHook) *Builder {
	b.logoutHook = hook
	return b
}

// WithClock overrides the engine's clock. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the engine. The builder
// cannot be reused afterwards.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var rule *regexp.Regexp
	if cfg.Password.Rules != "" {
		compiled, err := regexp.Compile(cfg.Password.Rules)
		if err != nil {
			return nil, err
		}
		rule = compiled
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	var limiter rate.Limiter
	if b.redis != nil {
		limiter = rate.NewRedisLimiter(b.redis, cfg.Security.LoginCooldown)
	} else {
		limiter = rate.NewMemoryLimiter(cfg.Security.LoginCooldown, clock)
	}

	tokens, err := token.NewManager(token.Config{
		Validity: cfg.Persist.Validity,
		Now:      clock,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		passwordRule: rule,
		store:        authfile.NewStore(cfg.Store.AuthFilePath),
		limiter:      limiter,
		tokens:       tokens,
		metrics:      internalmetrics.New(cfg.Metrics.Enabled),
		loginHook:    b.loginHook,
		logoutHook:   b.logoutHook,
		now:          clock,
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return engine, nil
}
