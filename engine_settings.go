package authvault

import (
	"context"

	"github.com/authvault/authvault/authfile"
)

// GetSettings returns a deep copy of the caller's full settings bag. The bag
// never contains password or role material; those live outside the settings
// surface entirely.
func (e *Engine) GetSettings(ctx context.Context, sess *Session) (map[string]any, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if sess == nil {
		return nil, ErrMissingArgument
	}

	ticket := sess.Ticket()
	var out map[string]any
	err := e.store.View(func(t *authfile.Tree) error {
		if u := t.User(ticket.Username); u != nil {
			out = authfile.CloneSettings(u.Settings)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// GetSetting returns the value of one named section of the caller's settings,
// or nil when the section is absent. Addressing password or role through the
// settings surface is a security error, not an empty result.
func (e *Engine) GetSetting(ctx context.Context, sess *Session, section string) (any, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if sess == nil {
		return nil, ErrMissingArgument
	}
	if section == "" {
		return nil, ErrMissingArgument
	}
	if section == "password" || section == "role" {
		return nil, ErrIllegalSection
	}

	ticket := sess.Ticket()
	var out any
	err := e.store.View(func(t *authfile.Tree) error {
		if u := t.User(ticket.Username); u != nil {
			if v, ok := u.Settings[section]; ok {
				out = authfile.CloneSettings(map[string]any{section: v})[section]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ChangeSettings replaces the caller's whole settings bag. The guest identity
// may never change settings, and the bag must not carry password or role
// keys.
func (e *Engine) ChangeSettings(ctx context.Context, sess *Session, settings map[string]any) error {
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
	if err := validateSettings(settings); err != nil {
		return err
	}

	err := e.store.Modify(func(t *authfile.Tree) error {
		u := t.User(ticket.Username)
		if u == nil {
			return ErrUserNotFound
		}
		u.Settings = authfile.CloneSettings(settings)
		return nil
	})
	if err != nil {
		return err
	}

	e.metricInc(MetricSettingsChanged)
	e.emit(ctx, "settings_changed", true, ticket.Username, ticket.Role, nil, nil)
	return nil
}

// ChangeSetting replaces one named section of the caller's settings. A named
// section takes exactly one value; a single nil value removes the section.
func (e *Engine) ChangeSetting(ctx context.Context, sess *Session, section string, values ...any) error {
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
	if section == "" {
		return ErrMissingArgument
	}
	if section == "password" || section == "role" {
		return ErrIllegalSection
	}
	if len(values) != 1 {
		return ErrSectionValue
	}
	value := values[0]

	err := e.store.Modify(func(t *authfile.Tree) error {
		u := t.User(ticket.Username)
		if u == nil {
			return ErrUserNotFound
		}
		if value == nil {
			delete(u.Settings, section)
			return nil
		}
		if u.Settings == nil {
			u.Settings = map[string]any{}
		}
		u.Settings[section] = authfile.CloneSettings(map[string]any{section: value})[section]
		return nil
	})
	if err != nil {
		return err
	}

	e.metricInc(MetricSettingsChanged)
	e.emit(ctx, "settings_changed", true, ticket.Username, ticket.Role, nil, map[string]string{
		"section": section,
	})
	return nil
}
