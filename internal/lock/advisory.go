package lock

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const unlockTimeout = 5 * time.Second

// Advisory is a Locker backed by Postgres session-level advisory locks, so
// several portal processes sharing a database serialize settlement for the
// same patient. Each held lock pins one pooled connection until released.
type Advisory struct {
	pool      *pgxpool.Pool
	namespace string
	log       zerolog.Logger
}

func NewAdvisory(pool *pgxpool.Pool, namespace string, log zerolog.Logger) *Advisory {
	return &Advisory{pool: pool, namespace: namespace, log: log}
}

// LockID maps a key to the bigint advisory lock id.
func (a *Advisory) LockID(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(a.namespace))
	h.Write([]byte{0})
	h.Write([]byte(key))
	return int64(h.Sum64())
}

func (a *Advisory) TryAcquire(ctx context.Context, key string) (Release, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	id := a.LockID(key)
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", id).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, ErrHeld
	}

	var once sync.Once
	return func() {
		once.Do(func() { a.unlock(conn, key, id) })
	}, nil
}

func (a *Advisory) unlock(conn *pgxpool.Conn, key string, id int64) {
	uctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
	defer cancel()
	if _, err := conn.Exec(uctx, "SELECT pg_advisory_unlock($1)", id); err != nil {
		// Closing the session drops every advisory lock it holds.
		a.log.Warn().Err(err).Str("key", key).Msg("advisory unlock failed, closing connection")
		_ = conn.Conn().Close(uctx)
	}
	conn.Release()
}
