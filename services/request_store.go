package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/herecomesthebride/boutique-api/models"
	"github.com/herecomesthebride/boutique-api/store"
	"github.com/herecomesthebride/boutique-api/utils"
	"go.uber.org/zap"
)

// Storage keys of the two request collections
const (
	DreamDressRequestsKey  = "dream_dress_requests"
	AppointmentRequestsKey = "appointment_requests"
)

// Request is the behaviour RequestStore needs from a request record
type Request[T any] interface {
	GetID() string
	Stamp(id string, createdAt time.Time) T
	WithStatus(status string) T
	IsValidStatus(status string) bool
}

// RequestStore is an append-only collection of customer requests whose
// status can be changed. Every mutation rewrites the whole collection; writes
// through one store are serialized, writers in other processes sharing the
// medium follow last-writer-wins.
type RequestStore[T Request[T]] struct {
	// mu guards the load-mutate-save cycle of Submit and UpdateStatus
	mu       sync.Mutex
	kv       store.KeyValueStore
	key      string
	idPrefix string
	now      func() time.Time
	newID    func() string
}

// DreamDressStore holds dream-dress finder requests
type DreamDressStore = RequestStore[models.DreamDressRequest]

// AppointmentStore holds appointment requests
type AppointmentStore = RequestStore[models.AppointmentRequest]

var (
	dreamDressStoreInstance  *DreamDressStore
	appointmentStoreInstance *AppointmentStore
)

// NewRequestStore creates a store persisting under key with ids of the form <idPrefix><uuid>
func NewRequestStore[T Request[T]](kv store.KeyValueStore, key, idPrefix string) *RequestStore[T] {
	return &RequestStore[T]{
		kv:       kv,
		key:      key,
		idPrefix: idPrefix,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
}

// NewDreamDressStore creates the dream-dress request store
func NewDreamDressStore(kv store.KeyValueStore) *DreamDressStore {
	return NewRequestStore[models.DreamDressRequest](kv, DreamDressRequestsKey, "request-")
}

// NewAppointmentStore creates the appointment request store
func NewAppointmentStore(kv store.KeyValueStore) *AppointmentStore {
	return NewRequestStore[models.AppointmentRequest](kv, AppointmentRequestsKey, "appointment-")
}

// InitRequestStores sets the stores used by the HTTP handlers
func InitRequestStores(dreamDress *DreamDressStore, appointments *AppointmentStore) {
	dreamDressStoreInstance = dreamDress
	appointmentStoreInstance = appointments
}

// GetDreamDressStore returns the initialized dream-dress store
func GetDreamDressStore() *DreamDressStore {
	return dreamDressStoreInstance
}

// GetAppointmentStore returns the initialized appointment store
func GetAppointmentStore() *AppointmentStore {
	return appointmentStoreInstance
}

// Key returns the storage key of the collection
func (s *RequestStore[T]) Key() string {
	return s.key
}

// Submit assigns an id, the "new" status and the creation time to data,
// appends it to the collection and returns the stored record. Required-field
// checks belong to the caller.
func (s *RequestStore[T]) Submit(ctx context.Context, data T) (T, error) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	requests, err := s.List(ctx)
	if err != nil {
		return zero, err
	}

	request := data.Stamp(s.idPrefix+s.newID(), s.now())
	requests = append(requests, request)

	if err := s.save(ctx, requests); err != nil {
		return zero, err
	}

	zap.L().Info("Request submitted", zap.String("collection", s.key), zap.String("request_id", request.GetID()))
	return request, nil
}

// List returns the collection in insertion order; empty when nothing is stored
func (s *RequestStore[T]) List(ctx context.Context) ([]T, error) {
	blob, err := s.kv.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.key, err)
	}

	requests := []T{}
	if len(blob) == 0 {
		return requests, nil
	}
	if err := json.Unmarshal(blob, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.key, err)
	}
	return requests, nil
}

// UpdateStatus overwrites the status of the request with the given id. Any
// status of the request's workflow is accepted, in any order. An unknown id
// is a silent no-op.
func (s *RequestStore[T]) UpdateStatus(ctx context.Context, id, status string) error {
	var zero T
	if !zero.IsValidStatus(status) {
		return utils.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	requests, err := s.List(ctx)
	if err != nil {
		return err
	}

	for i, request := range requests {
		if request.GetID() != id {
			continue
		}
		requests[i] = request.WithStatus(status)
		if err := s.save(ctx, requests); err != nil {
			return err
		}
		zap.L().Info("Request status updated",
			zap.String("collection", s.key),
			zap.String("request_id", id),
			zap.String("status", status))
		return nil
	}

	zap.L().Debug("Status update for unknown request ignored", zap.String("collection", s.key), zap.String("request_id", id))
	return nil
}

// Watch calls fn with the full collection after every write to it, from any
// store sharing the same backing medium. Call cancel to stop watching.
func (s *RequestStore[T]) Watch(ctx context.Context, fn func([]T)) (cancel func()) {
	return s.kv.Subscribe(s.key, func() {
		requests, err := s.List(ctx)
		if err != nil {
			zap.L().Warn("Failed to reload requests after change", zap.String("collection", s.key), zap.Error(err))
			return
		}
		fn(requests)
	})
}

func (s *RequestStore[T]) save(ctx context.Context, requests []T) error {
	blob, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.key, err)
	}
	if err := s.kv.Save(ctx, s.key, blob); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.key, err)
	}
	return nil
}
