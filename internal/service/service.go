package service

import (
	"context"
	"sync"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/event"
)

// EventPublisher is the slice of the event producer the services use.
// Satisfied by *event.Producer.
type EventPublisher interface {
	CartSynced(ctx context.Context, data event.CartSyncedData)
	CheckoutSessionCreated(ctx context.Context, data event.CheckoutSessionCreatedData)
	OrderCreated(ctx context.Context, order *domain.Order)
}

// keyedMutex provides one mutex per key with refcounted cleanup, so two
// requests for the same identity serialize without a global lock.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	l := k.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	l.mu.Unlock()
}
