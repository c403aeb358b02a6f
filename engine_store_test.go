package authvault

import (
	"context"
	"errors"
	"testing"
)

func TestServerSaltGeneratedOnce(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	root := rootSession(t, e)

	first, err := e.ServerSalt(ctx, root)
	if err != nil {
		t.Fatalf("ServerSalt: %v", err)
	}
	if first == "" {
		t.Fatal("generated salt is empty")
	}

	second, err := e.ServerSalt(ctx, root)
	if err != nil {
		t.Fatalf("ServerSalt: %v", err)
	}
	if second != first {
		t.Errorf("salt changed between reads: %q vs %q", first, second)
	}
}

func TestSetServerSaltWriteOnce(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	// A caller-supplied salt is only possible before anything generated one,
	// so synthesize a root session instead of logging in.
	sess := e.NewSession()
	sess.set(Ticket{Username: "root", Role: "root"})

	if err := e.SetServerSalt(ctx, sess, "pepper-1"); err != nil {
		t.Fatalf("SetServerSalt: %v", err)
	}
	got, err := e.ServerSalt(ctx, sess)
	if err != nil {
		t.Fatalf("ServerSalt: %v", err)
	}
	if got != "pepper-1" {
		t.Errorf("salt = %q, want pepper-1", got)
	}

	if err := e.SetServerSalt(ctx, sess, "pepper-2"); !errors.Is(err, ErrSaltAlreadySet) {
		t.Fatalf("second SetServerSalt: got %v, want ErrSaltAlreadySet", err)
	}
	if err := e.SetServerSalt(ctx, sess, ""); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("empty salt: got %v, want ErrMissingArgument", err)
	}
}

func TestSetServerSaltAfterBootstrap(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	root := rootSession(t, e)

	// Bootstrap generated a salt already; the write-once rule holds.
	err := e.SetServerSalt(context.Background(), root, "pepper")
	if !errors.Is(err, ErrSaltAlreadySet) {
		t.Fatalf("SetServerSalt after bootstrap: got %v, want ErrSaltAlreadySet", err)
	}
}

func TestGnuPGKeypairWriteOnce(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	root := rootSession(t, e)

	ref, err := e.GnuPGKeypair(ctx, root)
	if err != nil {
		t.Fatalf("GnuPGKeypair: %v", err)
	}
	if ref != "" {
		t.Errorf("fresh keypair reference = %q, want empty", ref)
	}

	if err := e.SetGnuPGKeypair(ctx, root, "0xDEADBEEF"); err != nil {
		t.Fatalf("SetGnuPGKeypair: %v", err)
	}
	ref, err = e.GnuPGKeypair(ctx, root)
	if err != nil {
		t.Fatalf("GnuPGKeypair: %v", err)
	}
	if ref != "0xDEADBEEF" {
		t.Errorf("keypair reference = %q", ref)
	}

	if err := e.SetGnuPGKeypair(ctx, root, "0xFEEDFACE"); !errors.Is(err, ErrKeypairAlreadySet) {
		t.Fatalf("second SetGnuPGKeypair: got %v, want ErrKeypairAlreadySet", err)
	}
}

func TestStoreOperationsRequireRoot(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	bootstrap(t, e)
	mustCreateUser(t, e, CreateUserInput{Username: "alice", Password: "pw"})
	alice := loginSession(t, e, "alice", "pw")

	if _, err := e.ServerSalt(ctx, alice); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("ServerSalt: got %v, want ErrPermissionDenied", err)
	}
	if err := e.SetServerSalt(ctx, alice, "x"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("SetServerSalt: got %v, want ErrPermissionDenied", err)
	}
	if _, err := e.GnuPGKeypair(ctx, alice); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("GnuPGKeypair: got %v, want ErrPermissionDenied", err)
	}
	if err := e.SetGnuPGKeypair(ctx, alice, "x"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("SetGnuPGKeypair: got %v, want ErrPermissionDenied", err)
	}
	if _, err := e.Snapshot(ctx, alice); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Snapshot: got %v, want ErrPermissionDenied", err)
	}
	if _, err := e.GetUser(ctx, alice, "root"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("GetUser: got %v, want ErrPermissionDenied", err)
	}
	if _, err := e.ListUsers(ctx, alice); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("ListUsers: got %v, want ErrPermissionDenied", err)
	}
}

func TestSnapshotMasksFingerprints(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	root := rootSession(t, e)
	mustCreateUser(t, e, CreateUserInput{Username: "alice", Password: "pw"})

	tree, err := e.Snapshot(ctx, root)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	for _, u := range tree.Users {
		if u.Username == "guest" {
			if u.Password != "" {
				t.Errorf("guest record carries %q", u.Password)
			}
			continue
		}
		if u.Password != "xxx" {
			t.Errorf("fingerprint for %q leaked: %q", u.Username, u.Password)
		}
	}
}
