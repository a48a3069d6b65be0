package identity_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/taskhive/identity"
)

// testLogger swallows output so failing-path tests stay quiet
type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// stubProfiles records the payloads it receives and fails on demand
type stubProfiles struct {
	mu       sync.Mutex
	err      error
	requests []identity.CreateProfileRequest
}

func (s *stubProfiles) CreateProfile(_ context.Context, req identity.CreateProfileRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.err
}

func (s *stubProfiles) calls() []identity.CreateProfileRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]identity.CreateProfileRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// stubReconciler captures orphaned accounts
type stubReconciler struct {
	mu      sync.Mutex
	orphans []*identity.Account
}

func (s *stubReconciler) RecordOrphan(_ context.Context, account *identity.Account, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orphans = append(s.orphans, account)
}

func (s *stubReconciler) recorded() []*identity.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*identity.Account, len(s.orphans))
	copy(out, s.orphans)
	return out
}

// failingDeleteAccounts wraps a real Accounts store but fails every delete.
// It exercises the path where compensation itself breaks.
type failingDeleteAccounts struct {
	identity.Accounts
}

func (f *failingDeleteAccounts) DeleteByID(context.Context, uuid.UUID) error {
	return errors.New("delete refused", errors.CategoryInternal)
}

// repoWithAccounts lets tests swap the Accounts store behind a real manager
type repoWithAccounts struct {
	identity.RepositoryManager
	accounts identity.Accounts
}

func (r *repoWithAccounts) Accounts() identity.Accounts {
	return r.accounts
}
