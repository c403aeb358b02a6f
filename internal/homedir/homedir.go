// Package homedir provisions and removes per-user directory trees under the
// configured home root. Provisioning is idempotent and always runs outside
// the credential store lock.
package homedir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Path returns the home directory for username under root.
func Path(root, username string) string {
	return filepath.Join(root, "users", username)
}

// Provision creates the standard directory tree for a new user:
//
//	users/<name>/documents/private
//	users/<name>/documents/public
//	users/<name>/temp
//
// Directories that already exist are left alone.
func Provision(root, username string) error {
	home := Path(root, username)
	for _, dir := range []string{
		filepath.Join(home, "documents", "private"),
		filepath.Join(home, "documents", "public"),
		filepath.Join(home, "temp"),
	} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("provision user directory: %w", err)
		}
	}
	return nil
}

// Remove deletes the user's whole home directory tree. A missing tree is not
// an error.
func Remove(root, username string) error {
	if err := os.RemoveAll(Path(root, username)); err != nil {
		return fmt.Errorf("remove user directory: %w", err)
	}
	return nil
}
