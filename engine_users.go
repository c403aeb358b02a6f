package authvault

import (
	"context"
	"crypto/subtle"
	"fmt"
	"regexp"

	"github.com/authvault/authvault/authfile"
	"github.com/authvault/authvault/internal/homedir"
)

// usernamePattern is the allowed username alphabet. Usernames double as
// directory names under the home root, so the set stays filesystem-safe.
var usernamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

func (e *Engine) validateUsername(username string) error {
	if username == "" {
		return ErrMissingArgument
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	if username == e.config.Guest.Username {
		return ErrReservedName
	}
	return nil
}

// validateSettings rejects settings bags that smuggle credential or role
// material through the generic surface.
func validateSettings(settings map[string]any) error {
	for key := range settings {
		if key == "password" || key == "role" {
			return ErrIllegalSection
		}
	}
	return nil
}

// HasRootAccount reports whether the system has been bootstrapped with a
// root account. Hosts use it to decide between the setup flow and the
// normal login flow.
func (e *Engine) HasRootAccount(ctx context.Context) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	var has bool
	err := e.store.View(func(t *authfile.Tree) error {
		has = t.User(rootUsername) != nil
		return nil
	})
	return has, err
}

// SetRootPassword bootstraps a freshly installed system: it creates the root
// account and the synthetic guest record in one step. It fails with
// [ErrRootExists] once a root account is present, so it can never be used to
// reset a live system's root credentials.
func (e *Engine) SetRootPassword(ctx context.Context, password string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if password == "" {
		return ErrMissingArgument
	}
	if err := e.checkPasswordRule(password); err != nil {
		return err
	}

	salt, err := e.serverSalt()
	if err != nil {
		return err
	}
	fp := fingerprint(salt, password)

	err = e.store.Modify(func(t *authfile.Tree) error {
		if t.User(rootUsername) != nil {
			return ErrRootExists
		}
		t.AddUser(&authfile.User{
			Username: rootUsername,
			Password: fp,
			Role:     rootRole,
		})
		// The guest record carries no password: it can never be logged
		// into, it only anchors guest settings and a guest home directory.
		if t.User(e.config.Guest.Username) == nil {
			t.AddUser(&authfile.User{
				Username: e.config.Guest.Username,
				Role:     e.config.Guest.Role,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, name := range []string{rootUsername, e.config.Guest.Username} {
		if err := homedir.Provision(e.config.Store.HomeRoot, name); err != nil {
			return err
		}
	}

	e.metricInc(MetricUserCreated)
	e.emit(ctx, "root_password_set", true, rootUsername, rootRole, nil, nil)
	return nil
}

// CreateUser creates a new account record and provisions its home directory.
// Root only.
func (e *Engine) CreateUser(ctx context.Context, sess *Session, in CreateUserInput) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return err
	}
	if err := e.validateUsername(in.Username); err != nil {
		return err
	}
	if in.Password == "" {
		return ErrMissingArgument
	}
	if in.Role == e.config.Guest.Role {
		return ErrReservedName
	}
	if err := e.checkPasswordRule(in.Password); err != nil {
		return err
	}
	if err := validateSettings(in.Settings); err != nil {
		return err
	}

	role := in.Role
	if role == "" {
		role = defaultUserRole
	}

	salt, err := e.serverSalt()
	if err != nil {
		return err
	}
	fp := fingerprint(salt, in.Password)

	err = e.store.Modify(func(t *authfile.Tree) error {
		if t.User(in.Username) != nil {
			return ErrUserExists
		}
		t.AddUser(&authfile.User{
			Username: in.Username,
			Password: fp,
			Role:     role,
			Settings: authfile.CloneSettings(in.Settings),
		})
		return nil
	})
	if err != nil {
		return err
	}

	if err := homedir.Provision(e.config.Store.HomeRoot, in.Username); err != nil {
		return err
	}

	e.metricInc(MetricUserCreated)
	e.emit(ctx, "user_created", true, in.Username, role, nil, map[string]string{
		"actor": sess.Ticket().Username,
	})
	return nil
}

// EditUser updates an existing account's password, role, and settings. The
// username itself can never change; records are identified by it for their
// whole lifetime. Root only.
func (e *Engine) EditUser(ctx context.Context, sess *Session, in EditUserInput) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return err
	}
	if in.Username == "" {
		return ErrMissingArgument
	}
	if in.Username == e.config.Guest.Username {
		return ErrReservedName
	}
	if in.NewRole == e.config.Guest.Role {
		return ErrReservedName
	}
	if in.NewPassword != "" {
		if err := e.checkPasswordRule(in.NewPassword); err != nil {
			return err
		}
	}
	if err := validateSettings(in.Settings); err != nil {
		return err
	}

	var fp string
	if in.NewPassword != "" {
		salt, err := e.serverSalt()
		if err != nil {
			return err
		}
		fp = fingerprint(salt, in.NewPassword)
	}

	err := e.store.Modify(func(t *authfile.Tree) error {
		u := t.User(in.Username)
		if u == nil {
			return ErrUserNotFound
		}
		if in.Username == rootUsername && in.NewRole != "" && in.NewRole != rootRole {
			return ErrPermissionDenied
		}
		if fp != "" {
			u.Password = fp
		}
		if in.NewRole != "" {
			u.Role = in.NewRole
		}
		if in.ReplaceSettings {
			u.Settings = authfile.CloneSettings(in.Settings)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.metricInc(MetricUserEdited)
	if fp != "" {
		e.metricInc(MetricPasswordChanged)
	}
	e.emit(ctx, "user_edited", true, in.Username, in.NewRole, nil, map[string]string{
		"actor": sess.Ticket().Username,
	})
	return nil
}

// DeleteUser removes one or more account records and their home directories.
// The whole batch is atomic against the store: if any name is unknown,
// nothing is deleted. Root only; the root and guest records cannot be
// deleted.
func (e *Engine) DeleteUser(ctx context.Context, sess *Session, usernames ...string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return err
	}
	if len(usernames) == 0 {
		return ErrMissingArgument
	}
	for _, name := range usernames {
		if name == "" {
			return ErrMissingArgument
		}
		if name == rootUsername {
			return ErrPermissionDenied
		}
		if name == e.config.Guest.Username {
			return ErrReservedName
		}
	}

	err := e.store.Modify(func(t *authfile.Tree) error {
		for _, name := range usernames {
			if !t.RemoveUser(name) {
				return fmt.Errorf("user %q: %w", name, ErrUserNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, name := range usernames {
		if err := homedir.Remove(e.config.Store.HomeRoot, name); err != nil {
			return err
		}
		e.metricInc(MetricUserDeleted)
		e.emit(ctx, "user_deleted", true, name, "", nil, map[string]string{
			"actor": sess.Ticket().Username,
		})
	}
	return nil
}

// GetUser returns the password-stripped record for username. Root only.
func (e *Engine) GetUser(ctx context.Context, sess *Session, username string) (*UserInfo, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return nil, err
	}
	if username == "" {
		return nil, ErrMissingArgument
	}

	var info *UserInfo
	err := e.store.View(func(t *authfile.Tree) error {
		u := t.User(username)
		if u == nil {
			return ErrUserNotFound
		}
		info = &UserInfo{
			Username: u.Username,
			Role:     u.Role,
			Settings: authfile.CloneSettings(u.Settings),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ListUsers returns every real account, password-stripped and in insertion
// order. The synthetic guest record is not a real account and is excluded.
// Root only.
func (e *Engine) ListUsers(ctx context.Context, sess *Session) ([]UserInfo, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return nil, err
	}

	var out []UserInfo
	err := e.store.View(func(t *authfile.Tree) error {
		for _, u := range t.Users {
			if u.Username == e.config.Guest.Username {
				continue
			}
			out = append(out, UserInfo{
				Username: u.Username,
				Role:     u.Role,
				Settings: authfile.CloneSettings(u.Settings),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ChangePassword sets a new password for the calling user. Guests have no
// credentials to change.
func (e *Engine) ChangePassword(ctx context.Context, sess *Session, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if sess == nil {
		return ErrMissingArgument
	}
	ticket := sess.Ticket()
	if ticket.IsDefault {
		return ErrGuestForbidden
	}
	if newPassword == "" {
		return ErrMissingArgument
	}
	if err := e.checkPasswordRule(newPassword); err != nil {
		return err
	}

	salt, err := e.serverSalt()
	if err != nil {
		return err
	}
	fp := fingerprint(salt, newPassword)

	err = e.store.Modify(func(t *authfile.Tree) error {
		u := t.User(ticket.Username)
		if u == nil {
			return ErrUserNotFound
		}
		u.Password = fp
		return nil
	})
	if err != nil {
		return err
	}

	e.metricInc(MetricPasswordChanged)
	e.emit(ctx, "password_changed", true, ticket.Username, ticket.Role, nil, nil)
	return nil
}

// DeleteSelf removes the calling user's own account and home directory after
// re-verifying the password. The session reverts to guest.
func (e *Engine) DeleteSelf(ctx context.Context, sess *Session, password string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if sess == nil {
		return ErrMissingArgument
	}
	ticket := sess.Ticket()
	if ticket.IsDefault {
		return ErrGuestForbidden
	}
	if ticket.Username == rootUsername {
		return ErrPermissionDenied
	}
	if password == "" {
		return ErrMissingArgument
	}

	var salt string
	err := e.store.View(func(t *authfile.Tree) error {
		salt = t.ServerSalt
		return nil
	})
	if err != nil {
		return err
	}
	fp := fingerprint(salt, password)

	err = e.store.Modify(func(t *authfile.Tree) error {
		u := t.User(ticket.Username)
		if u == nil {
			return ErrUserNotFound
		}
		if subtle.ConstantTimeCompare([]byte(fp), []byte(u.Password)) != 1 {
			return ErrInvalidCredentials
		}
		t.RemoveUser(ticket.Username)
		return nil
	})
	if err != nil {
		return err
	}

	if err := homedir.Remove(e.config.Store.HomeRoot, ticket.Username); err != nil {
		return err
	}

	sess.clear()
	e.metricInc(MetricUserDeleted)
	e.emit(ctx, "user_deleted", true, ticket.Username, ticket.Role, nil, map[string]string{
		"actor": ticket.Username,
	})
	return nil
}

// Roles returns every distinct role in the store mapped to the number of
// accounts holding it. The configured guest role is always present, with a
// zero count when no real account uses it; the synthetic guest record itself
// is not counted. Any caller may list roles.
func (e *Engine) Roles(ctx context.Context) (map[string]int, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	roles := map[string]int{
		e.config.Guest.Role: 0,
	}
	err := e.store.View(func(t *authfile.Tree) error {
		for _, u := range t.Users {
			if u.Username == e.config.Guest.Username || u.Role == "" {
				continue
			}
			roles[u.Role]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}
