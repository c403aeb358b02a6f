package authvault

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Error taxonomy: validation failures (malformed input, policy violation,
// reserved-name collision), security failures (privilege violation, illegal
// field access, lockout), not-found, conflicts (duplicates, write-once fields
// already set), and storage failures surfaced from the auth file. Login
// failures collapse unknown-username and wrong-password into the single
// ErrInvalidCredentials so usernames cannot be enumerated from the error.
var (
	// ErrEngineNotReady is returned when an Engine method is called on a nil
	// or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrPermissionDenied is returned when a non-root caller invokes a
	// root-only operation or oversteps its role scope.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidCredentials is returned for both unknown usernames and
	// password mismatches.
	ErrInvalidCredentials = errors.New("credentials not accepted")
	// ErrLoginRateLimited matches every rate-limited login failure; the
	// concrete error is a [RateLimitedError] carrying the remaining wait.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrGuestForbidden is returned when the default guest identity attempts
	// an operation reserved for authenticated users.
	ErrGuestForbidden = errors.New("the default user cannot perform this operation")
	// ErrIllegalSection is returned when password or role is addressed
	// through the settings surface.
	ErrIllegalSection = errors.New("password and role cannot be accessed as settings")
	// ErrSectionValue is returned when a named settings section is given
	// anything but exactly one value.
	ErrSectionValue = errors.New("a named settings section takes exactly one value")
	// ErrMissingArgument is returned when a required argument is absent or empty.
	ErrMissingArgument = errors.New("required argument missing")
	// ErrUserExists is returned when a username is already taken.
	ErrUserExists = errors.New("username already taken")
	// ErrUserNotFound is returned when a referenced user record is absent.
	ErrUserNotFound = errors.New("user does not exist")
	// ErrReservedName is returned when the configured guest username or guest
	// role is used for a real account.
	ErrReservedName = errors.New("name reserved for the guest account")
	// ErrUsernameInvalid is returned when a username contains characters
	// outside a-z, 0-9, underscore, and hyphen.
	ErrUsernameInvalid = errors.New("username contains illegal characters")
	// ErrUsernameImmutable is returned when an edit attempts to rename a user.
	ErrUsernameImmutable = errors.New("username cannot be changed")
	// ErrPasswordPolicy is returned when a password fails the configured
	// password-rules expression.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrGrantExists is returned when an access grant identifier collides
	// with an existing grant.
	ErrGrantExists = errors.New("access grant identifier already in use")
	// ErrGrantNotFound is returned when no grant matches a delete filter.
	ErrGrantNotFound = errors.New("access grant does not exist")
	// ErrGrantEmpty is returned for an access grant without content.
	ErrGrantEmpty = errors.New("access grant has no content")
	// ErrSaltAlreadySet is returned on a second attempt to set the server salt.
	ErrSaltAlreadySet = errors.New("server salt already set")
	// ErrKeypairAlreadySet is returned on a second attempt to set the GnuPG
	// keypair reference.
	ErrKeypairAlreadySet = errors.New("gnupg keypair already set")
	// ErrRootExists is returned when SetRootPassword is called after the
	// system has already been bootstrapped.
	ErrRootExists = errors.New("root account already exists")
)

// RateLimitedError reports a login attempt inside the cooldown window.
// It unwraps to [ErrLoginRateLimited].
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	secs := int(math.Ceil(e.Remaining.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("you need to wait %d seconds before you can try again", secs)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrLoginRateLimited
}
