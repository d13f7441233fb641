package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MikkosUSN/levelup-merch/internal/domain"
	apperrors "github.com/MikkosUSN/levelup-merch/pkg/errors"
)

const (
	cartKeyPrefix = "cart:"
	lockKeyPrefix = "cart:checkout:"

	// maxTxRetries bounds optimistic WATCH retries before giving up.
	maxTxRetries = 10
)

// CartStore implements repository.CartStore backed by Redis. Update uses an
// optimistic WATCH/MULTI transaction so concurrent mutations of the same
// session never lose writes; BeginCheckout takes a SET NX lock so checkouts
// fail fast instead of queueing.
type CartStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewCartStore creates a Redis-backed cart store. ttl bounds how long an idle
// cart survives; lockTTL bounds a crashed checkout's lock.
func NewCartStore(client *redis.Client, ttl, lockTTL time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl, lockTTL: lockTTL}
}

// Get retrieves the session's cart, empty if none exists.
func (s *CartStore) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewCart(sessionID), nil
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &cart, nil
}

// Update applies fn inside an optimistic transaction. If another writer
// changes the key between read and write the transaction retries.
func (s *CartStore) Update(ctx context.Context, sessionID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	key := cartKeyPrefix + sessionID
	var result *domain.Cart

	txn := func(tx *redis.Tx) error {
		cart := domain.NewCart(sessionID)
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis get cart: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(data, cart); err != nil {
				return fmt.Errorf("unmarshal cart: %w", err)
			}
		}

		if err := fn(cart); err != nil {
			return err
		}
		cart.UpdatedAt = time.Now().UTC()

		payload, err := json.Marshal(cart)
		if err != nil {
			return fmt.Errorf("marshal cart: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = cart
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("cart update for session %s: too many concurrent modifications", sessionID)
}

// Clear resets the session's cart to empty, keeping the key alive.
func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	cart := domain.NewCart(sessionID)
	cart.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+sessionID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Destroy removes the session's cart key.
func (s *CartStore) Destroy(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

// BeginCheckout takes the session's checkout lock via SET NX. The lock TTL
// guards against a process crashing mid-checkout and stranding the session.
func (s *CartStore) BeginCheckout(ctx context.Context, sessionID string) (func(), error) {
	key := lockKeyPrefix + sessionID

	ok, err := s.client.SetNX(ctx, key, "1", s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("redis acquire checkout lock: %w", err)
	}
	if !ok {
		return nil, apperrors.CheckoutInProgress()
	}

	return func() {
		// Release runs with a fresh context so a canceled checkout still
		// frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.client.Del(releaseCtx, key).Err()
	}, nil
}
