package authvault

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log"
	"regexp"
	"time"

	"github.com/authvault/authvault/authfile"
	internalaudit "github.com/authvault/authvault/internal/audit"
	internalmetrics "github.com/authvault/authvault/internal/metrics"
	"github.com/authvault/authvault/internal/rate"
	"github.com/authvault/authvault/token"
)

// Engine is the credential store and authentication engine. Construct it
// through [Builder.Build]; all methods are safe for concurrent use.
type Engine struct {
	config       Config
	passwordRule *regexp.Regexp
	store        *authfile.Store
	limiter      rate.Limiter
	tokens       *token.Manager
	audit        *internalaudit.Dispatcher
	metrics      *internalmetrics.Metrics
	loginHook    LifecycleHook
	logoutHook   LifecycleHook
	now          func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// MetricsSnapshot returns a point-in-time copy of all engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.TakeSnapshot()
}

// AuditDropped returns how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

// emit sends one audit event. Metadata builders must never include a
// password or fingerprint; secrets are replaced with a placeholder before
// anything user-supplied is echoed.
func (e *Engine) emit(ctx context.Context, eventType string, success bool, username, role string, opErr error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	event := internalaudit.Event{
		Timestamp: e.now(),
		EventType: eventType,
		Username:  username,
		Role:      role,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	e.audit.Emit(ctx, event)
}

// requireRoot rejects any caller whose current role is not exactly "root".
func (e *Engine) requireRoot(sess *Session) error {
	if sess == nil {
		return ErrPermissionDenied
	}
	if sess.Ticket().Role != rootRole {
		return ErrPermissionDenied
	}
	return nil
}

const rootRole = "root"
const rootUsername = "root"

// defaultUserRole is assigned when CreateUser is given no explicit role.
const defaultUserRole = "user"

// passwordPlaceholder replaces password values anywhere user-supplied
// arguments could be echoed.
const passwordPlaceholder = "xxx"

// fingerprint computes the stored form of a password: the hex SHA-256 digest
// of the server salt concatenated with the plaintext.
func fingerprint(serverSalt, password string) string {
	sum := sha256.Sum256([]byte(serverSalt + password))
	return hex.EncodeToString(sum[:])
}

// persistKey derives the persistent-credential signing key from the server
// salt, so rotating the salt revokes every standing credential.
func persistKey(serverSalt string) []byte {
	sum := sha256.Sum256([]byte("authvault.persist." + serverSalt))
	return sum[:]
}

// newServerSalt generates the write-once server salt.
func newServerSalt() (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}

// checkPasswordRule enforces the configured password-rules expression.
func (e *Engine) checkPasswordRule(password string) error {
	if e.passwordRule == nil {
		return nil
	}
	if !e.passwordRule.MatchString(password) {
		return ErrPasswordPolicy
	}
	return nil
}

// serverSalt returns the current salt, generating and persisting one on
// first use. The explicit write-once rule of SetServerSalt only applies to
// caller-supplied salts.
func (e *Engine) serverSalt() (string, error) {
	var salt string
	err := e.store.View(func(t *authfile.Tree) error {
		salt = t.ServerSalt
		return nil
	})
	if err != nil {
		return "", err
	}
	if salt != "" {
		return salt, nil
	}

	generated, err := newServerSalt()
	if err != nil {
		return "", err
	}
	err = e.store.Modify(func(t *authfile.Tree) error {
		if t.ServerSalt == "" {
			t.ServerSalt = generated
		}
		salt = t.ServerSalt
		return nil
	})
	if err != nil {
		return "", err
	}
	return salt, nil
}

// runHook invokes a lifecycle hook, isolating the engine from hook panics.
func (e *Engine) runHook(ctx context.Context, hook LifecycleHook, username string, settings map[string]any) {
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("authvault: lifecycle hook panicked for user %q: %v", username, r)
		}
	}()
	hook(ctx, username, authfile.CloneSettings(settings))
}
