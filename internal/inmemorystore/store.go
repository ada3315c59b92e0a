package inmemorystore

import (
	"context"
	"sync"

	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/nodestore"
	"github.com/vk/plugflow/internal/plug"
)

// Store keeps each kind of state in its own sync.Map. Keys are written by
// one goroutine each and read after the run, which is the access pattern
// sync.Map is built for.
type Store struct {
	states  sync.Map // instance name -> nodestore.Status
	outputs sync.Map // canonical address -> plug.Value
	errors  sync.Map // instance name -> error
}

var _ nodestore.Store = (*Store)(nil)

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) SetStatus(_ context.Context, instance string, status nodestore.Status) error {
	s.states.Store(instance, status)
	return nil
}

func (s *Store) GetStatus(_ context.Context, instance string) (nodestore.Status, error) {
	status, ok := s.states.Load(instance)
	if !ok {
		return nodestore.StatusPending, nil
	}
	return status.(nodestore.Status), nil
}

func (s *Store) SetOutput(_ context.Context, addr nodeid.Address, value plug.Value) error {
	s.outputs.Store(addr.String(), value)
	return nil
}

func (s *Store) GetOutput(_ context.Context, addr nodeid.Address) (plug.Value, bool, error) {
	v, ok := s.outputs.Load(addr.String())
	if !ok {
		return plug.Value{}, false, nil
	}
	return v.(plug.Value), true, nil
}

func (s *Store) SetError(_ context.Context, instance string, nodeErr error) error {
	s.errors.Store(instance, nodeErr)
	return nil
}

func (s *Store) GetError(_ context.Context, instance string) (error, error) {
	err, ok := s.errors.Load(instance)
	if !ok {
		return nil, nil
	}
	return err.(error), nil
}

// Statuses returns a copy of every recorded status.
func (s *Store) Statuses() map[string]nodestore.Status {
	out := make(map[string]nodestore.Status)
	s.states.Range(func(k, v any) bool {
		out[k.(string)] = v.(nodestore.Status)
		return true
	})
	return out
}
