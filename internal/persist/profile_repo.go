package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Profile remembers what an account last logged into, so the next login can
// pick the same shard and character without asking.
type Profile struct {
	Account   string
	Shard     string
	Character string
	Serial    uint32
	LastLogin time.Time
}

type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Load returns the profile for account. ok is false when none is stored.
func (r *ProfileRepo) Load(ctx context.Context, account string) (Profile, bool, error) {
	p := Profile{Account: account}
	var (
		serial int64
		at     int64
	)
	err := r.db.SQL.QueryRowContext(ctx, r.db.rebind(
		`SELECT shard, char_name, serial, last_login FROM login_profiles WHERE account = ?`), account,
	).Scan(&p.Shard, &p.Character, &serial, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, fmt.Errorf("load profile %s: %w", account, err)
	}
	p.Serial = uint32(serial)
	p.LastLogin = time.UnixMilli(at)
	return p, true, nil
}

// Save upserts the profile.
func (r *ProfileRepo) Save(ctx context.Context, p Profile) error {
	if p.Account == "" {
		return errors.New("save profile: empty account")
	}
	if p.LastLogin.IsZero() {
		p.LastLogin = time.Now()
	}
	_, err := r.db.SQL.ExecContext(ctx, r.db.rebind(
		`INSERT INTO login_profiles (account, shard, char_name, serial, last_login)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (account) DO UPDATE SET
		   shard = excluded.shard,
		   char_name = excluded.char_name,
		   serial = excluded.serial,
		   last_login = excluded.last_login`),
		p.Account, p.Shard, p.Character, int64(p.Serial), p.LastLogin.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.Account, err)
	}
	return nil
}
