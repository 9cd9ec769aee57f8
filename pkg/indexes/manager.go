/*
Package indexes creates, polls and drops Atlas Search and Vector Search
indexes. Index builds are asynchronous on Atlas, so Ensure waits until the
index reports itself queryable or a timeout elapses.
*/
package indexes

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

/*
Status is one entry of a search index listing.
*/
type Status struct {
	Name      string
	Type      string
	Status    string
	Queryable bool
}

/*
SearchIndexes is the search index API of a single collection.
*/
type SearchIndexes interface {
	List(ctx context.Context, name string) ([]Status, error)
	Create(ctx context.Context, descriptor Descriptor) error
	Drop(ctx context.Context, name string) error
}

/*
Outcome reports what Ensure did.
*/
type Outcome int

const (
	Existed Outcome = iota
	Created
	Ready
	TimedOut
)

func (outcome Outcome) String() string {
	return [...]string{"existed", "created", "ready", "timed out"}[outcome]
}

/*
Manager applies index descriptors to one collection.
*/
type Manager struct {
	indexes  SearchIndexes
	Interval time.Duration
	Timeout  time.Duration
}

func NewManager(indexes SearchIndexes) *Manager {
	return &Manager{
		indexes:  indexes,
		Interval: 2 * time.Second,
		Timeout:  60 * time.Second,
	}
}

/*
Ensure creates the index when it does not exist and, when wait is set,
polls until it is queryable. An index that already exists is left alone.
*/
func (manager *Manager) Ensure(ctx context.Context, descriptor Descriptor, wait bool) (Outcome, error) {
	existing, err := manager.indexes.List(ctx, descriptor.Name)

	if err != nil {
		return Existed, err
	}

	for _, status := range existing {
		if status.Name == descriptor.Name {
			log.Info("search index exists", "name", descriptor.Name, "status", status.Status, "queryable", status.Queryable)
			return Existed, nil
		}
	}

	if err = manager.indexes.Create(ctx, descriptor); err != nil {
		return Existed, err
	}

	log.Info("search index created", "name", descriptor.Name, "type", descriptor.Kind)

	if !wait {
		return Created, nil
	}

	return manager.Wait(ctx, descriptor.Name)
}

/*
Wait polls the named index until it is queryable. A timeout is reported
as TimedOut, not as an error; the index keeps building on Atlas.
*/
func (manager *Manager) Wait(ctx context.Context, name string) (Outcome, error) {
	deadline := time.Now().Add(manager.Timeout)

	for {
		statuses, err := manager.indexes.List(ctx, name)

		if err != nil {
			return Created, err
		}

		for _, status := range statuses {
			if status.Name == name && status.Queryable {
				log.Info("search index ready", "name", name, "status", status.Status)
				return Ready, nil
			}
		}

		if time.Now().Add(manager.Interval).After(deadline) {
			log.Warn("search index not ready before timeout", "name", name, "timeout", manager.Timeout)
			return TimedOut, nil
		}

		select {
		case <-ctx.Done():
			return Created, ctx.Err()
		case <-time.After(manager.Interval):
		}
	}
}

/*
Drop removes the named index. A missing index is not an error.
*/
func (manager *Manager) Drop(ctx context.Context, name string) (bool, error) {
	err := manager.indexes.Drop(ctx, name)

	if errors.Is(err, errors.ErrNotReady) {
		log.Info("search index not found, skipping", "name", name)
		return false, nil
	}

	if err != nil {
		return false, err
	}

	log.Info("search index dropped", "name", name)

	return true, nil
}
