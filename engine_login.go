package authvault

import (
	"context"
	"crypto/subtle"

	"github.com/authvault/authvault/authfile"
)

// Login authenticates username/password against the credential store and, on
// success, installs a fresh ticket in sess.
//
// The cooldown check runs before any fingerprint work: an attempt inside the
// configured window fails with a [RateLimitedError] without touching the
// stored fingerprint. Unknown usernames and wrong passwords both fail with
// [ErrInvalidCredentials] so the two cases cannot be told apart.
//
// When persist is true a long-lived [PersistentCredential] is returned for
// the transport layer to store; otherwise the credential is nil.
func (e *Engine) Login(ctx context.Context, sess *Session, username, password string, persist bool) (*PersistentCredential, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if sess == nil || username == "" {
		return nil, ErrMissingArgument
	}

	ip := clientIPFromContext(ctx)

	remaining, err := e.limiter.Check(ctx, username, ip)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		e.metricInc(MetricLoginRateLimited)
		rl := &RateLimitedError{Remaining: remaining}
		e.emit(ctx, "login_rate_limited", false, username, "", rl, nil)
		return nil, rl
	}

	var (
		salt string
		user *authfile.User
	)
	err = e.store.View(func(t *authfile.Tree) error {
		salt = t.ServerSalt
		if u := t.User(username); u != nil {
			user = u.Clone()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if user == nil || user.Password == "" {
		e.metricInc(MetricLoginFailure)
		e.emit(ctx, "login_failure", false, username, "", ErrInvalidCredentials, map[string]string{
			"reason": "unknown_user",
		})
		return nil, ErrInvalidCredentials
	}

	fp := fingerprint(salt, password)
	if subtle.ConstantTimeCompare([]byte(fp), []byte(user.Password)) != 1 {
		if rerr := e.limiter.Record(ctx, username, ip); rerr != nil {
			return nil, rerr
		}
		e.metricInc(MetricLoginFailure)
		e.emit(ctx, "login_failure", false, username, "", ErrInvalidCredentials, map[string]string{
			"reason": "password_mismatch",
		})
		return nil, ErrInvalidCredentials
	}

	sess.set(Ticket{Username: username, Role: user.Role})
	if err := e.limiter.Reset(ctx, username, ip); err != nil {
		return nil, err
	}

	e.runHook(ctx, e.loginHook, username, user.Settings)

	e.metricInc(MetricLoginSuccess)
	e.emit(ctx, "login_success", true, username, user.Role, nil, nil)

	if !persist {
		return nil, nil
	}

	// The persistent credential carries the stored fingerprint, never the
	// plaintext, and is signed with a salt-derived key: rotating the server
	// salt revokes every standing credential at once.
	tok, expires, err := e.tokens.Issue(persistKey(salt), username, user.Password)
	if err != nil {
		return nil, err
	}
	return &PersistentCredential{
		Name:      e.config.Persist.CookieName,
		Token:     tok,
		ExpiresAt: expires,
		HTTPOnly:  true,
	}, nil
}

// Logout invokes the logout hook for the current user, then reverts sess to
// a fresh guest ticket. Callers holding a stored [PersistentCredential] for
// the session must discard it.
func (e *Engine) Logout(ctx context.Context, sess *Session) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if sess == nil {
		return ErrMissingArgument
	}

	ticket := sess.Ticket()
	if !ticket.IsDefault && e.logoutHook != nil {
		var settings map[string]any
		err := e.store.View(func(t *authfile.Tree) error {
			if u := t.User(ticket.Username); u != nil {
				settings = authfile.CloneSettings(u.Settings)
			}
			return nil
		})
		if err != nil {
			return err
		}
		e.runHook(ctx, e.logoutHook, ticket.Username, settings)
	}

	sess.clear()
	e.metricInc(MetricLogout)
	e.emit(ctx, "logout", true, ticket.Username, ticket.Role, nil, nil)
	return nil
}

// TokenLogin re-authenticates a session from a stored persistent credential.
// It reports whether the credential was accepted; on acceptance the session
// carries the user's ticket.
//
// Every rejection is silent: a false return tells the transport layer to
// delete the stored credential, and nothing more. A fingerprint mismatch
// commonly means the user rotated their credentials on purpose, so it is a
// designed non-failure rather than an error.
func (e *Engine) TokenLogin(ctx context.Context, sess *Session, raw string) bool {
	if e == nil || sess == nil || raw == "" {
		return false
	}

	var (
		salt    string
		hasRoot bool
	)
	err := e.store.View(func(t *authfile.Tree) error {
		salt = t.ServerSalt
		hasRoot = t.User(rootUsername) != nil
		return nil
	})
	if err != nil {
		return false
	}

	// A store without a root account is a reset system; every standing
	// credential is void.
	if !hasRoot || salt == "" {
		e.metricInc(MetricTokenLoginRejected)
		return false
	}

	username, fp, err := e.tokens.Parse(persistKey(salt), raw)
	if err != nil {
		e.metricInc(MetricTokenLoginRejected)
		e.emit(ctx, "token_login_rejected", false, "", "", nil, map[string]string{
			"reason": "malformed_or_expired",
		})
		return false
	}

	var user *authfile.User
	err = e.store.View(func(t *authfile.Tree) error {
		if u := t.User(username); u != nil {
			user = u.Clone()
		}
		return nil
	})
	if err != nil {
		return false
	}
	if user == nil || user.Password == "" ||
		subtle.ConstantTimeCompare([]byte(fp), []byte(user.Password)) != 1 {
		e.metricInc(MetricTokenLoginRejected)
		e.emit(ctx, "token_login_rejected", false, username, "", nil, map[string]string{
			"reason": "fingerprint_mismatch",
		})
		return false
	}

	sess.set(Ticket{Username: username, Role: user.Role})
	_ = e.limiter.Reset(ctx, username, clientIPFromContext(ctx))

	e.metricInc(MetricTokenLoginAccepted)
	e.emit(ctx, "token_login_accepted", true, username, user.Role, nil, nil)
	return true
}
