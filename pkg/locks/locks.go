/**
* Copyright 2025 The Gencache Authors
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

// Package locks provides Named Locks functionality for managing
// mutexes by string name (e.g., cache keys).
package locks

import (
	"fmt"
	"sync"
)

// NamedLocker provides a locker for handling Named Locks
type NamedLocker interface {
	Acquire(name string) (NamedLock, error)
	RAcquire(name string) (NamedLock, error)
}

// NamedLock defines the interface for implementing Named Locks
type NamedLock interface {
	Release() error
	RRelease() error
}

// NewNamedLocker returns a new Named Locker
func NewNamedLocker() NamedLocker {
	return &namedLocker{locks: make(map[string]*namedLock)}
}

type namedLocker struct {
	locks   map[string]*namedLock
	mapLock sync.Mutex
}

type namedLock struct {
	sync.RWMutex
	name      string
	queueSize int
	locker    *namedLocker
}

func errInvalidLockName(name string) error {
	return fmt.Errorf("invalid lock name: %s", name)
}

func (lk *namedLocker) lockFor(name string) *namedLock {
	lk.mapLock.Lock()
	nl, ok := lk.locks[name]
	if !ok {
		nl = &namedLock{name: name, locker: lk}
		lk.locks[name] = nl
	}
	nl.queueSize++
	lk.mapLock.Unlock()
	return nl
}

// Acquire locks the named lock for writing, and blocks until the wlock is acquired
func (lk *namedLocker) Acquire(name string) (NamedLock, error) {
	if name == "" {
		return nil, errInvalidLockName(name)
	}
	nl := lk.lockFor(name)
	nl.Lock()
	return nl, nil
}

// RAcquire locks the named lock for reading, and blocks until the rlock is acquired
func (lk *namedLocker) RAcquire(name string) (NamedLock, error) {
	if name == "" {
		return nil, errInvalidLockName(name)
	}
	nl := lk.lockFor(name)
	nl.RLock()
	return nl, nil
}

func (nl *namedLock) release(unlockFunc func()) {
	nl.locker.mapLock.Lock()
	nl.queueSize--
	if nl.queueSize == 0 {
		delete(nl.locker.locks, nl.name)
	}
	nl.locker.mapLock.Unlock()
	unlockFunc()
}

// Release releases the write lock on the subject Named Lock
func (nl *namedLock) Release() error {
	nl.release(nl.Unlock)
	return nil
}

// RRelease releases the read lock on the subject Named Lock
func (nl *namedLock) RRelease() error {
	nl.release(nl.RUnlock)
	return nil
}
