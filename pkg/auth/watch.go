package auth

import (
	"context"
	"time"
)

// Watch follows session changes made by other processes until ctx is done.
// A login elsewhere replaces the in-memory session, a logout elsewhere runs
// the logout hooks.
func (m *Manager) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Sync(ctx); err != nil && ctx.Err() == nil {
				m.log.Warn().Err(err).Msg("session sync failed")
			}
		}
	}
}

// Sync reloads the session if the store's version moved since the last read.
func (m *Manager) Sync(ctx context.Context) error {
	version, err := m.store.SessionVersion(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	seen := m.version
	hadSession := m.current != nil
	m.mu.Unlock()
	if version == seen {
		return nil
	}

	sess, ok, err := m.store.LoadSession(ctx)
	if err != nil {
		return err
	}
	if !ok {
		m.setCurrent(nil, version)
		if hadSession {
			m.log.Warn().Msg("session cleared by another process")
			m.runLogoutHooks()
		}
		return nil
	}

	m.setCurrent(&sess, version)
	m.log.Warn().Str("subject", sess.Subject).Msg("session changed by another process")
	return nil
}
