// Package dbpool implements a fixed-size FIFO pool of live relational
// connections, acquired with a blocking, RAII-style scoped handle.
package dbpool

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/fkheinstein204/saasforge/pkg/errors"
)

// ErrPoolClosed is returned when a connection is acquired after Shutdown.
var ErrPoolClosed = errors.New(errors.ErrInternal, "pool closed")

// ErrConnectionUnavailable is returned when a dead connection cannot be replaced.
var ErrConnectionUnavailable = errors.New(errors.ErrInternal, "connection unavailable")

// Config configures the pool.
type Config struct {
	DSN  string
	Size int
}

// Pool is a bounded, blocking FIFO of *pgx.Conn.
type Pool struct {
	dsn  string
	size int

	mu     sync.Mutex
	closed bool
	ch     chan *pgx.Conn
}

// New opens Size connections against DSN and fills the FIFO.
func New(ctx context.Context, cfg Config) (*Pool, error) {
	if cfg.Size <= 0 {
		cfg.Size = 10
	}

	p := &Pool{
		dsn:  cfg.DSN,
		size: cfg.Size,
		ch:   make(chan *pgx.Conn, cfg.Size),
	}

	for i := 0; i < cfg.Size; i++ {
		conn, err := pgx.Connect(ctx, cfg.DSN)
		if err != nil {
			p.closeAll()
			return nil, fmt.Errorf("dbpool: open connection %d/%d: %w", i+1, cfg.Size, err)
		}
		p.ch <- conn
	}

	return p, nil
}

func (p *Pool) closeAll() {
	close(p.ch)
	for conn := range p.ch {
		_ = conn.Close(context.Background())
	}
}

// Handle is the RAII-style scoped connection. Release returns the
// connection to the pool (or replaces it if dead) on every exit path.
type Handle struct {
	pool *Pool
	conn *pgx.Conn
}

// Conn exposes the underlying connection for the duration of the handle.
func (h *Handle) Conn() *pgx.Conn {
	return h.conn
}

// Release must be called exactly once, typically via defer. It returns
// ErrConnectionUnavailable if the connection was dead and no replacement
// could be opened, leaving the pool one connection short; the pool does
// not reopen that connection later.
func (h *Handle) Release(ctx context.Context) error {
	return h.pool.release(ctx, h.conn)
}

// Acquire blocks until a connection is available or the context is done.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	select {
	case conn, ok := <-p.ch:
		if !ok {
			return nil, ErrPoolClosed
		}
		return &Handle{pool: p, conn: conn}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) release(ctx context.Context, conn *pgx.Conn) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		_ = conn.Close(ctx)
		return nil
	}

	if conn.Ping(ctx) != nil {
		_ = conn.Close(ctx)
		fresh, err := pgx.Connect(ctx, p.dsn)
		if err != nil {
			return ErrConnectionUnavailable
		}
		conn = fresh
	}

	select {
	case p.ch <- conn:
	default:
		// FIFO is already full (shouldn't happen under correct use); drop it.
		_ = conn.Close(ctx)
	}
	return nil
}

// Shutdown drains the pool, closes every connection, and wakes any blocked
// acquirer with ErrPoolClosed. Further Acquire calls fail immediately.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.ch)
	for conn := range p.ch {
		_ = conn.Close(ctx)
	}
}
