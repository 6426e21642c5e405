package persist

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// JournalKind tells speech from client-side system lines.
type JournalKind int

const (
	JournalSpeech JournalKind = iota
	JournalSystem
)

// JournalEntry is one line of the message journal.
type JournalEntry struct {
	Account string
	At      time.Time
	Serial  uint32
	Speaker string
	Kind    JournalKind
	Type    byte // speech type for JournalSpeech
	Text    string
}

const (
	journalQueueSize   = 4096
	journalBatchSize   = 256
	journalFlushPeriod = time.Second
)

// JournalRepo appends journal lines from a writer goroutine so the game loop
// never waits on the database. Lines are dropped, not queued without bound,
// if the writer falls behind.
type JournalRepo struct {
	db  *DB
	log *zap.Logger

	ch      chan JournalEntry
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Int64
	written atomic.Int64
}

func NewJournalRepo(db *DB, log *zap.Logger) *JournalRepo {
	r := &JournalRepo{
		db:  db,
		log: log,
		ch:  make(chan JournalEntry, journalQueueSize),
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop()
	}()
	return r
}

// Record queues a line. It never blocks.
func (r *JournalRepo) Record(e JournalEntry) {
	if r == nil || r.closed.Load() {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	select {
	case r.ch <- e:
	default:
		r.dropped.Add(1)
	}
}

// Dropped reports lines lost to a full queue.
func (r *JournalRepo) Dropped() int64 { return r.dropped.Load() }

// Written reports lines committed to the database.
func (r *JournalRepo) Written() int64 { return r.written.Load() }

// Close flushes queued lines and stops the writer.
func (r *JournalRepo) Close() {
	r.once.Do(func() {
		r.closed.Store(true)
		close(r.ch)
		r.wg.Wait()
	})
}

func (r *JournalRepo) loop() {
	ticker := time.NewTicker(journalFlushPeriod)
	defer ticker.Stop()

	batch := make([]JournalEntry, 0, journalBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.write(context.Background(), batch); err != nil {
			r.log.Warn("journal write failed", zap.Int("lines", len(batch)), zap.Error(err))
		} else {
			r.written.Add(int64(len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case e, ok := <-r.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, e)
			if len(batch) >= journalBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (r *JournalRepo) write(ctx context.Context, batch []JournalEntry) error {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.db.rebind(
		`INSERT INTO journal (account, at_ms, serial, speaker, kind, body) VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("journal prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range batch {
		kind := int(e.Kind)<<8 | int(e.Type)
		if _, err := stmt.ExecContext(ctx,
			e.Account, e.At.UnixMilli(), int64(e.Serial), e.Speaker, kind, e.Text,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit lines for an account, newest last.
func (r *JournalRepo) Recent(ctx context.Context, account string, limit int) ([]JournalEntry, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(
		`SELECT at_ms, serial, speaker, kind, body FROM journal
		 WHERE account = ? ORDER BY at_ms DESC LIMIT ?`), account, limit)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var (
			at     int64
			serial int64
			kind   int
			e      = JournalEntry{Account: account}
		)
		if err := rows.Scan(&at, &serial, &e.Speaker, &kind, &e.Text); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		e.At = time.UnixMilli(at)
		e.Serial = uint32(serial)
		e.Kind = JournalKind(kind >> 8)
		e.Type = byte(kind)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
