// Package inmemorystore provides a thread-safe, in-memory implementation
// of the nodestore.Store interface. A store lives for one executor run.
package inmemorystore
