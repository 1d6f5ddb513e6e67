package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/testutil"
)

// Runs against a real Postgres so that row locks and concurrent
// transactions are exercised for real.
func TestOrderService_Postgres_OverlappingCarts(t *testing.T) {
	env := newEnvWithDB(t, testutil.Postgres(t))
	a := env.book("A", "2.00", 10)
	b := env.book("B", "3.00", 10)

	const buyers = 16
	users := make([]uuid.UUID, buyers)
	for i := range users {
		users[i] = uuid.New()
		// half the carts hold A then B, half B then A
		if i%2 == 0 {
			env.add(users[i], a.ID, 1)
			env.add(users[i], b.ID, 1)
		} else {
			env.add(users[i], b.ID, 1)
			env.add(users[i], a.ID, 1)
		}
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		errs []error
	)
	for _, u := range users {
		wg.Add(1)
		go func(u uuid.UUID) {
			defer wg.Done()
			_, err := env.orders.CreateOrder(env.ctx, u, "addr")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			errs = append(errs, err)
		}(u)
	}
	wg.Wait()

	for _, err := range errs {
		require.True(t, errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrConflict), "unexpected error: %v", err)
	}
	assert.LessOrEqual(t, ok, 10)
	assert.Equal(t, 10-ok, env.stock(a.ID))
	assert.Equal(t, 10-ok, env.stock(b.ID))
	assert.EqualValues(t, ok, env.count(&models.Order{}))
}

func TestOrderService_Postgres_ConcurrentCancel(t *testing.T) {
	env := newEnvWithDB(t, testutil.Postgres(t))
	b := env.book("C", "1.00", 3)
	user := uuid.New()
	env.add(user, b.ID, 2)
	o, err := env.orders.CreateOrder(env.ctx, user, "addr")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		cancelled int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.orders.CancelOrder(env.ctx, o.ID, owner(user)); err == nil {
				mu.Lock()
				cancelled++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, cancelled)
	assert.Equal(t, 3, env.stock(b.ID), "stock is released exactly once")
}
