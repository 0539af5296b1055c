package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/draftroom/pulse/internal/domain"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

var ErrIdentityNotFound = errors.New("auth: identity not found")

// Account is the identity store's view of a platform account.
type Account struct {
	Identity domain.Identity
	Status   Status
}

// IdentityStore resolves the account behind a verified token subject.
type IdentityStore interface {
	Lookup(ctx context.Context, identityID string) (Account, error)
}

// HTTPIdentityStore resolves accounts from the platform identity service.
type HTTPIdentityStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPIdentityStore(baseURL string, timeout time.Duration) *HTTPIdentityStore {
	return &HTTPIdentityStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type accountPayload struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Avatar string   `json:"avatar"`
	Roles  []string `json:"roles"`
	Status string   `json:"status"`
}

func (s *HTTPIdentityStore) Lookup(ctx context.Context, identityID string) (Account, error) {
	endpoint := s.baseURL + "/internal/identities/" + url.PathEscape(identityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Account{}, fmt.Errorf("build identity request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Account{}, fmt.Errorf("call identity service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Account{}, ErrIdentityNotFound
	default:
		return Account{}, fmt.Errorf("identity service status %d", resp.StatusCode)
	}

	var payload accountPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Account{}, fmt.Errorf("decode identity response: %w", err)
	}
	roles := make(domain.RoleSet, 0, len(payload.Roles))
	for _, r := range payload.Roles {
		roles = append(roles, domain.Role(r))
	}
	return Account{
		Identity: domain.Identity{
			ID:     payload.ID,
			Name:   payload.Name,
			Avatar: payload.Avatar,
			Roles:  roles,
		},
		Status: Status(payload.Status),
	}, nil
}

// StaticIdentityStore serves a fixed account set. It backs tests and
// deployments that have no identity service wired yet.
type StaticIdentityStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewStaticIdentityStore(accounts ...Account) *StaticIdentityStore {
	s := &StaticIdentityStore{accounts: make(map[string]Account, len(accounts))}
	for _, a := range accounts {
		s.accounts[a.Identity.ID] = a
	}
	return s
}

func (s *StaticIdentityStore) Put(a Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.Identity.ID] = a
}

func (s *StaticIdentityStore) Lookup(ctx context.Context, identityID string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[identityID]
	if !ok {
		return Account{}, ErrIdentityNotFound
	}
	return a, nil
}
