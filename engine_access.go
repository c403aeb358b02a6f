package authvault

import (
	"context"

	"github.com/authvault/authvault/authfile"
	"github.com/google/uuid"
)

// AccessFilter selects grants for deletion. A zero filter matches nothing;
// set ID to delete one grant, Role to delete every grant for a role, or both
// to require an exact pair.
type AccessFilter struct {
	Role string
	ID   string
}

func (f AccessFilter) matches(g *Grant) bool {
	if f.Role == "" && f.ID == "" {
		return false
	}
	if f.Role != "" && g.Role != f.Role {
		return false
	}
	if f.ID != "" && g.ID != f.ID {
		return false
	}
	return true
}

func validateGrants(grants []Grant) error {
	for i := range grants {
		if grants[i].Role == "" {
			return ErrMissingArgument
		}
		if len(grants[i].Content) == 0 {
			return ErrGrantEmpty
		}
	}
	return nil
}

// AddAccess appends access grants to the list. Grants with an empty ID get a
// generated one; supplying an ID already in use fails the whole batch with
// [ErrGrantExists] and nothing is appended. The stored grants, with their
// final IDs, are returned in list order. Root only.
func (e *Engine) AddAccess(ctx context.Context, sess *Session, grants ...Grant) ([]Grant, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		return nil, ErrMissingArgument
	}
	if err := validateGrants(grants); err != nil {
		return nil, err
	}

	var stored []Grant
	err := e.store.Modify(func(t *authfile.Tree) error {
		stored = stored[:0]
		batch := map[string]struct{}{}
		for i := range grants {
			g := grants[i].Clone()
			if g.ID == "" {
				g.ID = uuid.NewString()
			}
			if _, dup := batch[g.ID]; dup || t.GrantByID(g.ID) != nil {
				return ErrGrantExists
			}
			batch[g.ID] = struct{}{}
			t.Access = append(t.Access, g)
			stored = append(stored, *g.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricGrantAdded)
	e.emit(ctx, "access_added", true, sess.Ticket().Username, sess.Ticket().Role, nil, nil)
	return stored, nil
}

// SetAccess replaces the whole access list in one atomic step. An empty
// grants argument clears the list. Root only.
func (e *Engine) SetAccess(ctx context.Context, sess *Session, grants ...Grant) ([]Grant, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return nil, err
	}
	if err := validateGrants(grants); err != nil {
		return nil, err
	}

	var stored []Grant
	err := e.store.Modify(func(t *authfile.Tree) error {
		stored = stored[:0]
		replacement := make([]*authfile.Grant, 0, len(grants))
		ids := map[string]struct{}{}
		for i := range grants {
			g := grants[i].Clone()
			if g.ID == "" {
				g.ID = uuid.NewString()
			}
			if _, dup := ids[g.ID]; dup {
				return ErrGrantExists
			}
			ids[g.ID] = struct{}{}
			replacement = append(replacement, g)
			stored = append(stored, *g.Clone())
		}
		t.Access = replacement
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricGrantReplaced)
	e.emit(ctx, "access_replaced", true, sess.Ticket().Username, sess.Ticket().Role, nil, nil)
	return stored, nil
}

// DeleteAccess removes every grant matched by any of the filters. If a
// filter matches nothing the whole batch fails with [ErrGrantNotFound] and
// no grant is removed. It returns how many grants were deleted. Root only.
func (e *Engine) DeleteAccess(ctx context.Context, sess *Session, filters ...AccessFilter) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	if err := e.requireRoot(sess); err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, ErrMissingArgument
	}

	deleted := 0
	err := e.store.Modify(func(t *authfile.Tree) error {
		deleted = 0
		for _, f := range filters {
			if f.Role == "" && f.ID == "" {
				return ErrMissingArgument
			}
			kept := t.Access[:0]
			matched := false
			for _, g := range t.Access {
				if f.matches(g) {
					matched = true
					deleted++
					continue
				}
				kept = append(kept, g)
			}
			if !matched {
				return ErrGrantNotFound
			}
			t.Access = kept
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.metricInc(MetricGrantDeleted)
	e.emit(ctx, "access_deleted", true, sess.Ticket().Username, sess.Ticket().Role, nil, nil)
	return deleted, nil
}

// ListAccess returns access grants in list order. Root sees the full list;
// every other caller sees only the grants for its own role plus the "*"
// wildcard grants.
func (e *Engine) ListAccess(ctx context.Context, sess *Session) ([]Grant, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if sess == nil {
		return nil, ErrMissingArgument
	}

	ticket := sess.Ticket()
	var out []Grant
	err := e.store.View(func(t *authfile.Tree) error {
		for _, g := range t.Access {
			if ticket.Role != rootRole && g.Role != ticket.Role && g.Role != "*" {
				continue
			}
			out = append(out, *g.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
