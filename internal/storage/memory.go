package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/adventure"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// MemoryStore is an in-memory implementation of Store and PlanRepository
// for testing. Documents are deep-copied through JSON on the way in and
// out so tests cannot mutate stored state by accident.
type MemoryStore struct {
	mu         sync.RWMutex
	turns      map[uuid.UUID]*turn.Turn
	adventures map[uuid.UUID]*adventure.Adventure
	plans      map[string]*plan.Plan
	pingError  error
}

// Ensure MemoryStore implements Store and PlanRepository interfaces
var (
	_ Store          = (*MemoryStore)(nil)
	_ PlanRepository = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		turns:      make(map[uuid.UUID]*turn.Turn),
		adventures: make(map[uuid.UUID]*adventure.Adventure),
		plans:      make(map[string]*plan.Plan),
	}
}

// SetPingError makes Ping fail, for health-check tests.
func (m *MemoryStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// AddPlan registers a plan under a setting id.
func (m *MemoryStore) AddPlan(settingID string, p *plan.Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[settingID+"/"+p.ID] = p
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStore) Close() error {
	return nil
}

func copyDoc[T any](src *T) (*T, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	var dst T
	if err := json.Unmarshal(data, &dst); err != nil {
		return nil, err
	}
	return &dst, nil
}

func (m *MemoryStore) GetTurn(ctx context.Context, id uuid.UUID) (*turn.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.turns[id]
	if !ok {
		return nil, nil
	}
	return copyDoc(t)
}

func (m *MemoryStore) CreateTurn(ctx context.Context, t *turn.Turn) error {
	cp, err := copyDoc(t)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[t.ID] = cp
	return nil
}

func (m *MemoryStore) PatchTurn(ctx context.Context, id uuid.UUID, patch TurnPatch) (*turn.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.turns[id]
	if !ok {
		return nil, fmt.Errorf("turn not found: %s", id)
	}
	if t.Version != patch.Version {
		return nil, ErrVersionConflict
	}
	applyTurnPatch(t, patch)
	return copyDoc(t)
}

func (m *MemoryStore) GetAdventure(ctx context.Context, id uuid.UUID) (*adventure.Adventure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	adv, ok := m.adventures[id]
	if !ok {
		return nil, nil
	}
	return copyDoc(adv)
}

func (m *MemoryStore) SaveAdventure(ctx context.Context, adv *adventure.Adventure) error {
	cp, err := copyDoc(adv)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adventures[adv.ID] = cp
	return nil
}

func (m *MemoryStore) PatchAdventure(ctx context.Context, id uuid.UUID, patch AdventurePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	adv, ok := m.adventures[id]
	if !ok {
		return fmt.Errorf("adventure not found: %s", id)
	}
	applyAdventurePatch(adv, patch)
	return nil
}

func (m *MemoryStore) GetPlan(ctx context.Context, settingID, planID string) (*plan.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[settingID+"/"+planID]
	if !ok {
		return nil, nil
	}
	return copyDoc(p)
}
