package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/adventure-engine/pkg/adventure"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

const documentTTL = 24 * time.Hour

// RedisStore implements Store using Redis for adventure/turn documents
// and the filesystem for authored plans.
type RedisStore struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStore implements Store and PlanRepository interfaces
var (
	_ Store          = (*RedisStore)(nil)
	_ PlanRepository = (*RedisStore)(nil)
)

// NewRedisStore creates a new Redis store instance.
func NewRedisStore(redisURL string, dataDir string, logger *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStore{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
	}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

// Turn operations

func turnKey(id uuid.UUID) string {
	return "turn:" + id.String()
}

func (r *RedisStore) GetTurn(ctx context.Context, id uuid.UUID) (*turn.Turn, error) {
	cmd := r.client.Get(ctx, turnKey(id))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("Turn not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load turn", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load turn: %w", err)
	}

	var t turn.Turn
	if err := json.Unmarshal([]byte(cmd.Val()), &t); err != nil {
		r.logger.Error("Failed to unmarshal turn", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
	}
	return &t, nil
}

func (r *RedisStore) CreateTurn(ctx context.Context, t *turn.Turn) error {
	data, err := json.Marshal(t)
	if err != nil {
		r.logger.Error("Failed to marshal turn", "uuid", t.ID, "error", err)
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	if err := r.client.Set(ctx, turnKey(t.ID), string(data), documentTTL).Err(); err != nil {
		r.logger.Error("Failed to save turn", "uuid", t.ID, "error", err)
		return fmt.Errorf("failed to save turn: %w", err)
	}
	return nil
}

// PatchTurn applies a whole-document patch under an optimistic version
// check, using WATCH so a concurrent writer aborts the transaction.
func (r *RedisStore) PatchTurn(ctx context.Context, id uuid.UUID, patch TurnPatch) (*turn.Turn, error) {
	key := turnKey(id)
	var patched *turn.Turn

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				return fmt.Errorf("turn not found: %s", id)
			}
			return fmt.Errorf("failed to load turn: %w", err)
		}

		var t turn.Turn
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return fmt.Errorf("failed to unmarshal turn: %w", err)
		}

		if t.Version != patch.Version {
			return ErrVersionConflict
		}
		applyTurnPatch(&t, patch)

		data, err := json.Marshal(&t)
		if err != nil {
			return fmt.Errorf("failed to marshal turn: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(data), documentTTL)
			return nil
		})
		if err != nil {
			return err
		}
		patched = &t
		return nil
	}

	if err := r.client.Watch(ctx, txn, key); err != nil {
		if err == redis.TxFailedErr {
			r.logger.Warn("Turn patch lost a write race", "uuid", id)
			return nil, ErrVersionConflict
		}
		return nil, err
	}
	return patched, nil
}

// Adventure operations

func adventureKey(id uuid.UUID) string {
	return "adventure:" + id.String()
}

func (r *RedisStore) GetAdventure(ctx context.Context, id uuid.UUID) (*adventure.Adventure, error) {
	cmd := r.client.Get(ctx, adventureKey(id))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("Adventure not found", "uuid", id)
			return nil, nil
		}
		r.logger.Error("Failed to load adventure", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load adventure: %w", err)
	}

	var adv adventure.Adventure
	if err := json.Unmarshal([]byte(cmd.Val()), &adv); err != nil {
		r.logger.Error("Failed to unmarshal adventure", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal adventure: %w", err)
	}
	return &adv, nil
}

func (r *RedisStore) SaveAdventure(ctx context.Context, adv *adventure.Adventure) error {
	data, err := json.Marshal(adv)
	if err != nil {
		r.logger.Error("Failed to marshal adventure", "uuid", adv.ID, "error", err)
		return fmt.Errorf("failed to marshal adventure: %w", err)
	}

	if err := r.client.Set(ctx, adventureKey(adv.ID), string(data), documentTTL).Err(); err != nil {
		r.logger.Error("Failed to save adventure", "uuid", adv.ID, "error", err)
		return fmt.Errorf("failed to save adventure: %w", err)
	}
	return nil
}

func (r *RedisStore) PatchAdventure(ctx context.Context, id uuid.UUID, patch AdventurePatch) error {
	adv, err := r.GetAdventure(ctx, id)
	if err != nil {
		return err
	}
	if adv == nil {
		return fmt.Errorf("adventure not found: %s", id)
	}

	applyAdventurePatch(adv, patch)
	return r.SaveAdventure(ctx, adv)
}

// Plan operations (filesystem-backed)

func (r *RedisStore) GetPlan(ctx context.Context, settingID, planID string) (*plan.Plan, error) {
	planPath := filepath.Join(r.dataDir, "plans", settingID, planID+".json")

	data, err := os.ReadFile(planPath)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Warn("Plan not found", "setting", settingID, "plan", planID, "path", planPath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plan file %s: %w", planPath, err)
	}

	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON from %s: %w", planPath, err)
	}
	if p.ID == "" {
		p.ID = planID // Ensure ID is set from filename
	}
	return &p, nil
}
