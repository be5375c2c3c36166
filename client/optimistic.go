package client

import (
	"context"
	"errors"
	"sync"
)

// ErrMutationInFlight is returned by Controller.Mutate when the key already
// has a mutation waiting on the server.
var ErrMutationInFlight = errors.New("mutation already in flight")

// Reconcile folds the server's answer into the local value once a mutation
// succeeds, e.g. swapping a temporary id for the server-assigned one.
type Reconcile[V any] func(current V) V

// Mutation is one optimistic change of a single key.
//
// Predict must return a fresh value and leave current untouched: current is
// the rollback snapshot.
type Mutation[V any] struct {
	// Validate rejects the change before anything is applied. Optional.
	Validate func(current V) error
	Predict  func(current V) V
	// Send performs the request. A transport error and a success:false
	// answer are both failures. The returned Reconcile may be nil.
	Send func(ctx context.Context) (Reconcile[V], error)
}

// Controller keeps a keyed local view and applies optimistic mutations to
// it: predicted state shows at once and is rolled back if the server says no.
//
// At most one mutation per key is in flight. Keys are independent.
type Controller[K comparable, V any] struct {
	mu       sync.Mutex
	state    map[K]V
	inFlight map[K]struct{}

	onFailure func(key K, err error)
}

// NewController returns an empty controller. onFailure, if not nil, is
// called after every rollback; it is the hook for a user-visible error.
func NewController[K comparable, V any](onFailure func(key K, err error)) *Controller[K, V] {
	return &Controller[K, V]{
		state:     make(map[K]V),
		inFlight:  make(map[K]struct{}),
		onFailure: onFailure,
	}
}

// Get returns the local value of key.
func (c *Controller[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.state[key]
	return v, ok
}

// Set overwrites the local value of key, e.g. after loading from the server.
func (c *Controller[K, V]) Set(key K, v V) {
	c.mu.Lock()
	c.state[key] = v
	c.mu.Unlock()
}

// Pending reports whether key has a mutation in flight.
func (c *Controller[K, V]) Pending(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[key]
	return ok
}

// Mutate validates m against the current value, applies the prediction,
// sends the request and then either reconciles or restores the snapshot.
// The error is the validation or request error; on a request error the
// value is already back to what it was before the call.
func (c *Controller[K, V]) Mutate(ctx context.Context, key K, m Mutation[V]) error {
	c.mu.Lock()
	if _, busy := c.inFlight[key]; busy {
		c.mu.Unlock()
		return ErrMutationInFlight
	}

	snapshot, existed := c.state[key]
	if m.Validate != nil {
		if err := m.Validate(snapshot); err != nil {
			c.mu.Unlock()
			return err
		}
	}

	c.state[key] = m.Predict(snapshot)
	c.inFlight[key] = struct{}{}
	c.mu.Unlock()

	reconcile, err := m.Send(ctx)

	c.mu.Lock()
	delete(c.inFlight, key)
	if err != nil {
		if existed {
			c.state[key] = snapshot
		} else {
			delete(c.state, key)
		}
		c.mu.Unlock()

		if c.onFailure != nil {
			c.onFailure(key, err)
		}
		return err
	}

	if reconcile != nil {
		c.state[key] = reconcile(c.state[key])
	}
	c.mu.Unlock()
	return nil
}
