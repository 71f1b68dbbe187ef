package fragments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/fragments/kv"
)

const defaultCleanupTimeout = 30 * time.Second

// Manager owns the fragment lifecycle across a metadata store and a payload store.
// Both stores are keyed by (owner, id).
type Manager struct {
	metadata       kv.Store
	payload        kv.Store
	registry       *Registry
	converter      *Converter
	now            func() time.Time
	cleanupTimeout time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock replaces time.Now as the source of fragment timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithCleanupTimeout bounds the background cleanup run after a failed create (default: 30s).
func WithCleanupTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.cleanupTimeout = d
		}
	}
}

// NewManager returns a Manager storing metadata and payloads in the given stores.
// A nil registry means DefaultRegistry.
func NewManager(metadata, payload kv.Store, registry *Registry, opts ...ManagerOption) *Manager {
	if registry == nil {
		registry = DefaultRegistry()
	}

	m := &Manager{
		metadata:       metadata,
		payload:        payload,
		registry:       registry,
		converter:      NewConverter(registry),
		now:            time.Now,
		cleanupTimeout: defaultCleanupTimeout,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Registry returns the registry the manager validates types against.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Create stores a new fragment for owner. The payload is written before the metadata;
// if the metadata write fails the payload is removed again using a background context
// bounded by the cleanup timeout, so a visible fragment always has its payload.
//
// Error types returned:
//   - ErrInvalidInput: empty owner or content type
//   - ErrUnsupportedType: content type not in the registry's allow-list
//   - ErrStorage: either store failed
func (m *Manager) Create(ctx context.Context, owner OwnerID, contentType string, payload []byte) (Fragment, error) {
	if err := ctx.Err(); err != nil {
		return Fragment{}, fmt.Errorf("create fragment: %w", err)
	}

	if owner == "" {
		return Fragment{}, fmt.Errorf("create fragment: %w: owner cannot be empty", ErrInvalidInput)
	}

	if contentType == "" {
		return Fragment{}, fmt.Errorf("create fragment: %w: content type cannot be empty", ErrInvalidInput)
	}

	if !m.registry.IsSupportedType(contentType) {
		return Fragment{}, fmt.Errorf("create fragment: %w: %s", ErrUnsupportedType, contentType)
	}

	now := m.now().UTC()
	f := Fragment{
		ID:      uuid.NewString(),
		OwnerID: owner,
		Created: now,
		Updated: now,
		Type:    contentType,
		Size:    int64(len(payload)),
	}

	if err := m.payload.Put(ctx, string(owner), f.ID, payload); err != nil {
		return Fragment{}, fmt.Errorf("create fragment %s: write payload: %w: %w", f.ID, ErrStorage, err)
	}

	if err := m.putMetadata(ctx, f); err != nil {
		// Use background context for cleanup since original context may be cancelled
		cleanupCtx, cancel := context.WithTimeout(context.Background(), m.cleanupTimeout)
		defer cancel()

		if delErr := m.payload.Del(cleanupCtx, string(owner), f.ID); delErr != nil {
			return Fragment{}, fmt.Errorf("create fragment %s: metadata write failed (%w) and cleanup failed: %w", f.ID, err, delErr)
		}
		return Fragment{}, fmt.Errorf("create fragment %s: %w", f.ID, err)
	}

	return f, nil
}

// ByID returns the fragment id owned by owner.
func (m *Manager) ByID(ctx context.Context, owner OwnerID, id string) (Fragment, error) {
	if owner == "" || id == "" {
		return Fragment{}, fmt.Errorf("get fragment: %w: owner and id are required", ErrInvalidInput)
	}

	raw, ok, err := m.metadata.Get(ctx, string(owner), id)
	if err != nil {
		return Fragment{}, fmt.Errorf("get fragment %s: %w: %w", id, ErrStorage, err)
	}
	if !ok {
		return Fragment{}, fmt.Errorf("get fragment %s: %w", id, ErrNotFound)
	}

	f, err := decodeFragment(raw)
	if err != nil {
		return Fragment{}, fmt.Errorf("get fragment %s: %w", id, err)
	}
	return f, nil
}

// ByUser lists owner's fragments in creation order, as ids or, when expand is set, as
// full fragments. An owner with no fragments gets an empty listing.
func (m *Manager) ByUser(ctx context.Context, owner OwnerID, expand bool) (Listing, error) {
	listing := Listing{IDs: []string{}, Expanded: expand}
	if expand {
		listing.Fragments = []Fragment{}
	}

	if owner == "" {
		return listing, nil
	}

	raws, err := m.metadata.Query(ctx, string(owner))
	if err != nil {
		return Listing{}, fmt.Errorf("list fragments: %w: %w", ErrStorage, err)
	}

	for _, raw := range raws {
		f, decErr := decodeFragment(raw)
		if decErr != nil {
			return Listing{}, fmt.Errorf("list fragments: %w", decErr)
		}
		listing.IDs = append(listing.IDs, f.ID)
		if expand {
			listing.Fragments = append(listing.Fragments, f)
		}
	}

	return listing, nil
}

// Payload returns the stored bytes of f.
func (m *Manager) Payload(ctx context.Context, f Fragment) ([]byte, error) {
	data, ok, err := m.payload.Get(ctx, string(f.OwnerID), f.ID)
	if err != nil {
		return nil, fmt.Errorf("get payload %s: %w: %w", f.ID, ErrStorage, err)
	}
	if !ok {
		return nil, fmt.Errorf("get payload %s: %w", f.ID, ErrNotFound)
	}

	if int64(len(data)) != f.Size {
		slog.Warn("payload size differs from metadata", "id", f.ID, "size", f.Size, "actual", len(data))
	}

	return data, nil
}

// SetPayload replaces the payload of f and re-persists its metadata with the new size.
// On failure f is left as it was.
func (m *Manager) SetPayload(ctx context.Context, f *Fragment, payload []byte) error {
	if f == nil || f.OwnerID == "" || f.ID == "" {
		return fmt.Errorf("set payload: %w: fragment is incomplete", ErrInvalidInput)
	}

	if err := m.payload.Put(ctx, string(f.OwnerID), f.ID, payload); err != nil {
		return fmt.Errorf("set payload %s: %w: %w", f.ID, ErrStorage, err)
	}

	prev := *f
	f.Size = int64(len(payload))
	f.Updated = m.now().UTC()

	if err := m.putMetadata(ctx, *f); err != nil {
		*f = prev
		return fmt.Errorf("set payload %s: %w", f.ID, err)
	}

	return nil
}

// Save refreshes f's updated time and persists its metadata.
func (m *Manager) Save(ctx context.Context, f *Fragment) error {
	if f == nil || f.OwnerID == "" || f.ID == "" {
		return fmt.Errorf("save fragment: %w: fragment is incomplete", ErrInvalidInput)
	}

	prev := f.Updated
	f.Updated = m.now().UTC()

	if err := m.putMetadata(ctx, *f); err != nil {
		f.Updated = prev
		return fmt.Errorf("save fragment %s: %w", f.ID, err)
	}
	return nil
}

// Delete removes the fragment's metadata and then its payload. A missing payload is
// logged and tolerated; any other payload failure is returned as ErrStorage and a
// later Delete removes the leftover payload. When the metadata is already gone, any
// leftover payload is removed and ErrNotFound is returned.
func (m *Manager) Delete(ctx context.Context, owner OwnerID, id string) error {
	if owner == "" || id == "" {
		return fmt.Errorf("delete fragment: %w: owner and id are required", ErrInvalidInput)
	}

	err := m.metadata.Del(ctx, string(owner), id)
	if errors.Is(err, kv.ErrNotFound) {
		if delErr := m.payload.Del(ctx, string(owner), id); delErr == nil {
			slog.Info("removed orphaned payload", "id", id)
		} else if !errors.Is(delErr, kv.ErrNotFound) {
			slog.Warn("failed to remove orphaned payload", "id", id, "err", delErr)
		}
		return fmt.Errorf("delete fragment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete fragment %s: %w: %w", id, ErrStorage, err)
	}

	delErr := m.payload.Del(ctx, string(owner), id)
	switch {
	case delErr == nil:
	case errors.Is(delErr, kv.ErrNotFound):
		slog.Warn("fragment had no payload", "id", id)
	default:
		return fmt.Errorf("delete fragment %s payload: %w: %w", id, ErrStorage, delErr)
	}

	return nil
}

// State reports which halves of the fragment exist.
func (m *Manager) State(ctx context.Context, owner OwnerID, id string) (State, error) {
	if owner == "" || id == "" {
		return StateAbsent, fmt.Errorf("fragment state: %w: owner and id are required", ErrInvalidInput)
	}

	_, hasMeta, err := m.metadata.Get(ctx, string(owner), id)
	if err != nil {
		return StateAbsent, fmt.Errorf("fragment state %s: %w: %w", id, ErrStorage, err)
	}

	_, hasPayload, err := m.payload.Get(ctx, string(owner), id)
	if err != nil {
		return StateAbsent, fmt.Errorf("fragment state %s: %w: %w", id, ErrStorage, err)
	}

	switch {
	case hasMeta && hasPayload:
		return StateComplete, nil
	case hasMeta:
		return StateMetadataOnly, nil
	case hasPayload:
		return StatePayloadOnly, nil
	default:
		return StateAbsent, nil
	}
}

// Convert renders payload, the bytes of f, as ext.
func (m *Manager) Convert(f Fragment, payload []byte, ext string) (Rendition, error) {
	return m.converter.Convert(f, payload, ext)
}

// Formats lists the formats f can be rendered in.
func (m *Manager) Formats(f Fragment) []string {
	return f.Formats(m.registry)
}

func (m *Manager) putMetadata(ctx context.Context, f Fragment) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if err := m.metadata.Put(ctx, string(f.OwnerID), f.ID, raw); err != nil {
		return fmt.Errorf("write metadata: %w: %w", ErrStorage, err)
	}
	return nil
}

func decodeFragment(raw []byte) (Fragment, error) {
	var f Fragment
	if err := json.Unmarshal(raw, &f); err != nil {
		return Fragment{}, fmt.Errorf("decode metadata: %w: %w", ErrStorage, err)
	}
	return f, nil
}
