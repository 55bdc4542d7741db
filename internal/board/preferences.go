package board

import (
	"context"
	"errors"

	"github.com/s1natex/taskboard-GO/internal/kv"
)

// DarkModeKey holds "enabled" or "disabled".
const DarkModeKey = "darkMode"

type Preferences struct {
	kv kv.Store
}

func NewPreferences(store kv.Store) *Preferences {
	return &Preferences{kv: store}
}

func (p *Preferences) DarkMode(ctx context.Context) (bool, error) {
	v, err := p.kv.Get(ctx, DarkModeKey)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "enabled", nil
}

func (p *Preferences) SetDarkMode(ctx context.Context, on bool) error {
	v := "disabled"
	if on {
		v = "enabled"
	}
	return p.kv.Set(ctx, DarkModeKey, v)
}
