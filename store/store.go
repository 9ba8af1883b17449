// Package store persists plugin install states.
package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	apperrors "github.com/leeforge/essentials/errors"
	"github.com/leeforge/essentials/plugin"
)

// Record is the persisted install state of one plugin.
type Record struct {
	PluginID  string              `json:"pluginId"`
	State     plugin.InstallState `json:"state"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// StateStore reads and writes install state records.
type StateStore interface {
	// Load returns the record for a plugin, or a not_found AppError.
	Load(ctx context.Context, pluginID string) (Record, error)
	Save(ctx context.Context, rec Record) error
	// List returns all records sorted by plugin id.
	List(ctx context.Context) ([]Record, error)
}

// RecordOf snapshots a descriptor's current state.
func RecordOf(d *plugin.Descriptor) Record {
	return Record{PluginID: d.ID, State: d.State, UpdatedAt: time.Now().UTC()}
}

// Restore copies persisted states onto the matching descriptors of set.
// Records for unknown plugins are ignored. Returns the number applied.
func Restore(ctx context.Context, s StateStore, set *plugin.Set) (int, error) {
	records, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore install states: %w", err)
	}
	applied := 0
	for _, rec := range records {
		if d, ok := set.Get(rec.PluginID); ok {
			d.State = rec.State
			applied++
		}
	}
	return applied, nil
}

func notFound(pluginID string) error {
	return apperrors.NewNotFound("install state", pluginID)
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].PluginID < records[j].PluginID })
}
