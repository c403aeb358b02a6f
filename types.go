package authvault

import (
	"context"
	"io"
	"time"

	"github.com/authvault/authvault/authfile"
	internalaudit "github.com/authvault/authvault/internal/audit"
	internalmetrics "github.com/authvault/authvault/internal/metrics"
)

// Ticket is the ephemeral per-session identity descriptor. It is always
// swapped as a whole value, never partially mutated. IsDefault is true only
// for the synthetic guest identity of a not-yet-authenticated session.
type Ticket struct {
	Username  string
	Role      string
	IsDefault bool
}

// UserInfo is the password-stripped view of a user record returned by
// [Engine.GetUser] and [Engine.ListUsers].
type UserInfo struct {
	Username string
	Role     string
	Settings map[string]any
}

// Grant is one role-scoped access entry. Role "*" applies to every role; ID
// is unique within the access list and generated when left empty.
type Grant = authfile.Grant

// CreateUserInput is the input for [Engine.CreateUser]. Settings is an
// arbitrary bag of named sub-trees attached to the new record; password and
// role material is carried only in the dedicated fields.
type CreateUserInput struct {
	Username string
	Password string
	Role     string
	Settings map[string]any
}

// EditUserInput is the input for [Engine.EditUser]. Username identifies the
// record and can never be changed. Empty NewPassword/NewRole leave the
// existing values alone. When ReplaceSettings is true the whole settings bag
// is replaced by Settings; otherwise existing settings are kept.
type EditUserInput struct {
	Username        string
	NewPassword     string
	NewRole         string
	Settings        map[string]any
	ReplaceSettings bool
}

// PersistentCredential is the long-lived "remember me" credential returned
// by [Engine.Login] when persistence is requested. The transport layer
// stores it (typically as a cookie) and must honor HTTPOnly.
type PersistentCredential struct {
	Name      string
	Token     string
	ExpiresAt time.Time
	HTTPOnly  bool
}

// LifecycleHook is invoked after a successful login or before a logout with
// the affected username and a clone of the user's settings bag.
type LifecycleHook func(ctx context.Context, username string, settings map[string]any)

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.ID

const (
	// MetricLoginSuccess counts successful interactive logins.
	MetricLoginSuccess = internalmetrics.LoginSuccess
	// MetricLoginFailure counts rejected interactive logins.
	MetricLoginFailure = internalmetrics.LoginFailure
	// MetricLoginRateLimited counts logins refused inside the cooldown window.
	MetricLoginRateLimited = internalmetrics.LoginRateLimited
	// MetricTokenLoginAccepted counts persistent-credential logins accepted.
	MetricTokenLoginAccepted = internalmetrics.TokenLoginAccepted
	// MetricTokenLoginRejected counts persistent-credential logins rejected.
	MetricTokenLoginRejected = internalmetrics.TokenLoginRejected
	// MetricLogout counts logouts.
	MetricLogout = internalmetrics.Logout
	// MetricUserCreated counts user records created.
	MetricUserCreated = internalmetrics.UserCreated
	// MetricUserEdited counts user records edited.
	MetricUserEdited = internalmetrics.UserEdited
	// MetricUserDeleted counts user records deleted.
	MetricUserDeleted = internalmetrics.UserDeleted
	// MetricPasswordChanged counts password changes.
	MetricPasswordChanged = internalmetrics.PasswordChanged
	// MetricGrantAdded counts access grants appended.
	MetricGrantAdded = internalmetrics.GrantAdded
	// MetricGrantReplaced counts full access-list replacements.
	MetricGrantReplaced = internalmetrics.GrantReplaced
	// MetricGrantDeleted counts access grants removed.
	MetricGrantDeleted = internalmetrics.GrantDeleted
	// MetricSettingsChanged counts settings mutations.
	MetricSettingsChanged = internalmetrics.SettingsChanged
)

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot
