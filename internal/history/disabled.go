package history

import "context"

// DisabledStore drops every record. It keeps the relay's default behavior of
// holding no state beyond the live connection set.
type DisabledStore struct{}

func NewDisabledStore() *DisabledStore { return &DisabledStore{} }

func (s *DisabledStore) Record(context.Context, Event) error { return nil }

func (s *DisabledStore) Recent(context.Context, int) ([]Event, error) { return nil, nil }

func (s *DisabledStore) Enabled() bool { return false }

func (s *DisabledStore) Close() error { return nil }
