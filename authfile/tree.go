package authfile

// Tree is the credential record tree: the single persisted aggregate.
// ServerSalt and GnuPGKeypair are write-once (the engine enforces the rule);
// Users and Access preserve insertion order.
type Tree struct {
	ServerSalt   string   `yaml:"server-salt,omitempty"`
	GnuPGKeypair string   `yaml:"gnupg-keypair,omitempty"`
	Users        []*User  `yaml:"users"`
	Access       []*Grant `yaml:"access,omitempty"`
}

// User is one account record. Password holds the salted fingerprint, never a
// plaintext; it is empty for the synthetic guest record. Settings is an
// arbitrary bag of named sub-trees supplied at create/edit time and never
// contains password or role material.
type User struct {
	Username string         `yaml:"username"`
	Password string         `yaml:"password,omitempty"`
	Role     string         `yaml:"role,omitempty"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Grant is one role-scoped access entry. Role "*" applies to every role.
// ID is unique within the access list.
type Grant struct {
	Role    string         `yaml:"role"`
	ID      string         `yaml:"id"`
	Content map[string]any `yaml:"content"`
}

// NewTree returns the bootstrap tree a freshly installed system starts from:
// no salt, no accounts, no grants.
func NewTree() *Tree {
	return &Tree{Users: []*User{}}
}

// User returns the record for username, or nil.
func (t *Tree) User(username string) *User {
	for _, u := range t.Users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// AddUser appends a user record, preserving insertion order.
func (t *Tree) AddUser(u *User) {
	t.Users = append(t.Users, u)
}

// RemoveUser detaches the record for username. It reports whether a record
// was removed.
func (t *Tree) RemoveUser(username string) bool {
	for i, u := range t.Users {
		if u.Username == username {
			t.Users = append(t.Users[:i], t.Users[i+1:]...)
			return true
		}
	}
	return false
}

// Grant returns the access entry matching both role and id, or nil.
func (t *Tree) Grant(role, id string) *Grant {
	for _, g := range t.Access {
		if g.Role == role && g.ID == id {
			return g
		}
	}
	return nil
}

// GrantByID returns the access entry with the given identifier, or nil.
func (t *Tree) GrantByID(id string) *Grant {
	for _, g := range t.Access {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// RemoveGrant detaches the entry matching both role and id. It reports
// whether an entry was removed.
func (t *Tree) RemoveGrant(role, id string) bool {
	for i, g := range t.Access {
		if g.Role == role && g.ID == id {
			t.Access = append(t.Access[:i], t.Access[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the tree. Mutating the copy never affects the
// original; the store relies on this for its clone-on-write discipline.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	out := &Tree{
		ServerSalt:   t.ServerSalt,
		GnuPGKeypair: t.GnuPGKeypair,
		Users:        make([]*User, 0, len(t.Users)),
	}
	for _, u := range t.Users {
		out.Users = append(out.Users, u.Clone())
	}
	if t.Access != nil {
		out.Access = make([]*Grant, 0, len(t.Access))
		for _, g := range t.Access {
			out.Access = append(out.Access, g.Clone())
		}
	}
	return out
}

// Clone returns a deep copy of the user record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	return &User{
		Username: u.Username,
		Password: u.Password,
		Role:     u.Role,
		Settings: CloneSettings(u.Settings),
	}
}

// Clone returns a deep copy of the grant.
func (g *Grant) Clone() *Grant {
	if g == nil {
		return nil
	}
	return &Grant{
		Role:    g.Role,
		ID:      g.ID,
		Content: CloneSettings(g.Content),
	}
}

// CloneSettings deep-copies a settings bag. Nested maps and slices are
// copied; scalar leaves are shared, which is safe because the YAML decoder
// only produces immutable scalar types.
func CloneSettings(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneSettings(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
