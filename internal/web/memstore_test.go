// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package web_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/internal/library"
	"github.com/sheetshelf/sheetshelf/internal/user"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories with the
// same constraint behavior.
type memStore struct {
	mu       sync.Mutex
	users    map[string]user.User
	works    map[int64]library.Work
	entries  map[entryKey]memEntry
	nextWork int64
	seq      int
}

type entryKey struct {
	username string
	workID   int64
}

type memEntry struct {
	library.Entry
	seq int
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]user.User{},
		works:   map[int64]library.Work{},
		entries: map[entryKey]memEntry{},
	}
}

func (s *memStore) entryCount(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.entries {
		if k.username == username {
			n++
		}
	}
	return n
}

func (s *memStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memUsers struct{ *memStore }

func (s memUsers) emailTaken(email, except string) bool {
	for name, u := range s.users {
		if name != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s memUsers) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return oops.Code("USER_USERNAME_TAKEN").Wrapf(errutil.ErrConflict, "username is already taken")
	}
	if s.emailTaken(u.Email, "") {
		return oops.Code("USER_EMAIL_TAKEN").Wrapf(errutil.ErrConflict, "email is already registered")
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.Username] = *u
	return nil
}

func (s memUsers) GetByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrapf(errutil.ErrNotFound, "user not found")
	}
	return &u, nil
}

func (s memUsers) List(context.Context) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s memUsers) Update(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; !ok {
		return oops.Code("USER_NOT_FOUND").Wrapf(errutil.ErrNotFound, "user not found")
	}
	if s.emailTaken(u.Email, u.Username) {
		return oops.Code("USER_EMAIL_TAKEN").Wrapf(errutil.ErrConflict, "email is already registered")
	}
	u.UpdatedAt = time.Now()
	s.users[u.Username] = *u
	return nil
}

func (s memUsers) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return oops.Code("USER_NOT_FOUND").Wrapf(errutil.ErrNotFound, "user not found")
	}
	delete(s.users, username)
	return nil
}

func (s memUsers) Exists(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok, nil
}

type memWorks struct{ *memStore }

func (s memWorks) Create(_ context.Context, w *library.Work) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ExternalID != nil {
		for _, existing := range s.works {
			if existing.ExternalID != nil && *existing.ExternalID == *w.ExternalID {
				return oops.Code("WORK_EXTERNAL_ID_TAKEN").Wrapf(errutil.ErrConflict, "a work with this externalId already exists")
			}
		}
	}
	s.nextWork++
	w.ID = s.nextWork
	w.CreatedAt = time.Now()
	s.works[w.ID] = *w
	return nil
}

func (s memWorks) Get(_ context.Context, id int64) (*library.Work, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.works[id]
	if !ok {
		return nil, oops.Code("WORK_NOT_FOUND").Wrapf(errutil.ErrNotFound, "work not found")
	}
	return &w, nil
}

func (s memWorks) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.works[id]; !ok {
		return oops.Code("WORK_NOT_FOUND").Wrapf(errutil.ErrNotFound, "work not found")
	}
	delete(s.works, id)
	return nil
}

type memEntries struct{ *memStore }

func (s memEntries) joined(e memEntry) library.Entry {
	out := e.Entry
	w := s.works[e.WorkID]
	out.ExternalID, out.Title, out.Composer = w.ExternalID, w.Title, w.Composer
	return out
}

func (s memEntries) Create(_ context.Context, e *library.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entryKey{e.Username, e.WorkID}
	if _, ok := s.entries[key]; ok {
		return oops.Code("LIBRARY_ENTRY_EXISTS").Wrapf(errutil.ErrConflict, "work is already in the library")
	}
	_, userOK := s.users[e.Username]
	_, workOK := s.works[e.WorkID]
	if !userOK || !workOK {
		return oops.Code("LIBRARY_REFERENCE_MISSING").Wrapf(errutil.ErrNotFound, "user or work not found")
	}
	s.seq++
	e.AddedAt = time.Now()
	e.UpdatedAt = e.AddedAt
	s.entries[key] = memEntry{Entry: *e, seq: s.seq}
	return nil
}

func (s memEntries) Get(_ context.Context, username string, workID int64) (*library.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryKey{username, workID}]
	if !ok {
		return nil, oops.Code("LIBRARY_ENTRY_NOT_FOUND").Wrapf(errutil.ErrNotFound, "work is not in the library")
	}
	out := s.joined(e)
	return &out, nil
}

func (s memEntries) Update(_ context.Context, e *library.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entryKey{e.Username, e.WorkID}
	stored, ok := s.entries[key]
	if !ok {
		return oops.Code("LIBRARY_ENTRY_NOT_FOUND").Wrapf(errutil.ErrNotFound, "work is not in the library")
	}
	stored.Annotations = e.Annotations
	stored.UpdatedAt = time.Now()
	e.UpdatedAt = stored.UpdatedAt
	s.entries[key] = stored
	return nil
}

func (s memEntries) Delete(_ context.Context, username string, workID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entryKey{username, workID}
	if _, ok := s.entries[key]; !ok {
		return oops.Code("LIBRARY_ENTRY_NOT_FOUND").Wrapf(errutil.ErrNotFound, "work is not in the library")
	}
	delete(s.entries, key)
	return nil
}

func (s memEntries) ListByUser(_ context.Context, username string) ([]library.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []memEntry
	for k, e := range s.entries {
		if k.username == username {
			rows = append(rows, e)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]library.Entry, 0, len(rows))
	for _, e := range rows {
		out = append(out, s.joined(e))
	}
	return out, nil
}

func (s memEntries) DeleteByUser(_ context.Context, username string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.entries {
		if k.username == username {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

func (s memEntries) DeleteByWork(_ context.Context, workID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.entries {
		if k.workID == workID {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}
