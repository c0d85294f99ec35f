// Package auth owns the process-wide authentication state: the current
// credential, the identity behind it, and the two persistence surfaces
// the credential lives on. It is constructed explicitly and injected
// into consumers; nothing else writes the credential stores.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/voxmeet/voxmeet/internal/api"
	"github.com/voxmeet/voxmeet/internal/credential"
)

// ErrAutoLogin marks a registration whose follow-up sign-in failed.
// The account exists; the user has to log in manually.
var ErrAutoLogin = errors.New("auto-login after registration failed")

type Manager struct {
	client  *api.Client
	holder  *credential.Holder
	durable credential.Store
	cookie  credential.Store

	mu       sync.RWMutex
	identity *api.Identity

	onChange func(*api.Identity)
}

// NewManager wires the auth state over its two persistence surfaces.
// onChange, if set, is invoked after every identity transition.
func NewManager(client *api.Client, holder *credential.Holder, durable, cookie credential.Store, onChange func(*api.Identity)) *Manager {
	return &Manager{
		client:   client,
		holder:   holder,
		durable:  durable,
		cookie:   cookie,
		onChange: onChange,
	}
}

// Restore initializes the manager from the persisted credential. Any
// failure along the way clears both surfaces and reports
// unauthenticated; restore itself never fails.
func (m *Manager) Restore(ctx context.Context) *api.Identity {
	token, err := m.durable.Load()
	if err != nil {
		log.Printf("auth: credential load failed: %v", err)
	}
	if token == "" {
		m.clearCredential()
		m.publish(nil)
		return nil
	}

	m.holder.Set(token)
	id, err := m.client.Me(ctx)
	if err != nil {
		log.Printf("auth: identity fetch failed, clearing credential: %v", err)
		m.clearCredential()
		m.publish(nil)
		return nil
	}

	// The cookie surface may have expired independently; re-save so the
	// two surfaces stay in sync for the restored session.
	if err := m.cookie.Save(token); err != nil {
		log.Printf("auth: cookie refresh failed: %v", err)
	}

	m.publish(&id)
	return &id
}

// Login exchanges credentials for a bearer token, persists it to both
// surfaces, then fetches and publishes the identity. Gateway errors
// propagate unchanged; any partial state is rolled back.
func (m *Manager) Login(ctx context.Context, email, password string) (*api.Identity, error) {
	token, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := m.durable.Save(token); err != nil {
		m.clearCredential()
		return nil, fmt.Errorf("persist credential: %w", err)
	}
	if err := m.cookie.Save(token); err != nil {
		m.clearCredential()
		return nil, fmt.Errorf("persist cookie: %w", err)
	}
	m.holder.Set(token)

	id, err := m.client.Me(ctx)
	if err != nil {
		m.clearCredential()
		m.publish(nil)
		return nil, err
	}

	m.publish(&id)
	return &id, nil
}

// Register creates a company account and auto-logs in with the same
// credentials. If the follow-up login fails the registration stands:
// no credential is persisted and the error wraps ErrAutoLogin.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*api.Identity, error) {
	if err := m.client.Register(ctx, name, email, password); err != nil {
		return nil, err
	}
	id, err := m.Login(ctx, email, password)
	if err != nil {
		return nil, errors.Join(ErrAutoLogin, err)
	}
	return id, nil
}

// Logout clears both persistence surfaces and publishes unauthenticated
// synchronously. No server call is made.
func (m *Manager) Logout() {
	m.clearCredential()
	m.publish(nil)
}

// Identity returns the current published identity, or nil.
func (m *Manager) Identity() *api.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

func (m *Manager) Authenticated() bool {
	return m.Identity() != nil
}

func (m *Manager) clearCredential() {
	m.holder.Set("")
	if err := m.durable.Clear(); err != nil {
		log.Printf("auth: clear credential store: %v", err)
	}
	if err := m.cookie.Clear(); err != nil {
		log.Printf("auth: clear cookie store: %v", err)
	}
}

func (m *Manager) publish(id *api.Identity) {
	m.mu.Lock()
	m.identity = id
	hook := m.onChange
	m.mu.Unlock()
	if hook != nil {
		hook(id)
	}
}
