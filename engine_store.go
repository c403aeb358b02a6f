package authvault

import (
	"context"

	"github.com/authvault/authvault/authfile"
)

// ServerSalt returns the server salt, generating and persisting one on first
// use. Root only: the salt is key material for every stored fingerprint.
func (e *Engine) ServerSalt(ctx context.Context, sess *Session) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return "", err
	}
	return e.serverSalt()
}

// SetServerSalt installs a caller-supplied server salt. The salt is
// write-once: once any salt exists, explicit or generated, the call fails
// with [ErrSaltAlreadySet]. Root only.
func (e *Engine) SetServerSalt(ctx context.Context, sess *Session, salt string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return err
	}
	if salt == "" {
		return ErrMissingArgument
	}

	err := e.store.Modify(func(t *authfile.Tree) error {
		if t.ServerSalt != "" {
			return ErrSaltAlreadySet
		}
		t.ServerSalt = salt
		return nil
	})
	if err != nil {
		return err
	}

	e.emit(ctx, "salt_set", true, sess.Ticket().Username, rootRole, nil, nil)
	return nil
}

// GnuPGKeypair returns the stored keypair reference, or "" when none is set.
// Root only.
func (e *Engine) GnuPGKeypair(ctx context.Context, sess *Session) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return "", err
	}

	var ref string
	err := e.store.View(func(t *authfile.Tree) error {
		ref = t.GnuPGKeypair
		return nil
	})
	return ref, err
}

// SetGnuPGKeypair stores the reference to the server's GnuPG keypair. The
// reference is write-once. Root only.
func (e *Engine) SetGnuPGKeypair(ctx context.Context, sess *Session, ref string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return err
	}
	if ref == "" {
		return ErrMissingArgument
	}

	err := e.store.Modify(func(t *authfile.Tree) error {
		if t.GnuPGKeypair != "" {
			return ErrKeypairAlreadySet
		}
		t.GnuPGKeypair = ref
		return nil
	})
	if err != nil {
		return err
	}

	e.emit(ctx, "keypair_set", true, sess.Ticket().Username, rootRole, nil, nil)
	return nil
}

// Snapshot returns a deep copy of the whole credential record tree with every
// password fingerprint blanked. Root only; intended for diagnostics and
// backup tooling, never for authentication.
func (e *Engine) Snapshot(ctx context.Context, sess *Session) (*authfile.Tree, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return nil, err
	}

	tree, err := e.store.Snapshot()
	if err != nil {
		return nil, err
	}
	for _, u := range tree.Users {
		if u.Password != "" {
			u.Password = passwordPlaceholder
		}
	}
	return tree, nil
}
