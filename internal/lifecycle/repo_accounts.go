package lifecycle

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepo persists customers and suppliers. Hold and blacklist
// toggles follow the same lock-mutate-log transaction shape as order
// transitions.
type AccountRepo struct{ DB *pgxpool.Pool }

func (r *AccountRepo) ListCustomers(ctx context.Context) ([]*Customer, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, contact, payment_term_days, on_hold, hold_reason
		FROM customers ORDER BY name`)
	if err != nil {
		return nil, pErr("list customers", err)
	}
	defer rows.Close()

	var out []*Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Contact, &c.PaymentTermDay, &c.OnHold, &c.HoldReason); err != nil {
			return nil, pErr("scan customer", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *AccountRepo) ListSuppliers(ctx context.Context) ([]*Supplier, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, contact, blacklisted, blacklist_reason
		FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, pErr("list suppliers", err)
	}
	defer rows.Close()

	var out []*Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Contact, &s.Blacklisted, &s.BlacklistReason); err != nil {
			return nil, pErr("scan supplier", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// ApplyCustomer runs a customer mutation under a row lock and records
// the audit entries it appended.
func (r *AccountRepo) ApplyCustomer(ctx context.Context, id string, fn func(*Customer) error) (*Customer, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, pErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var c Customer
	err = tx.QueryRow(ctx, `
		SELECT id, name, contact, payment_term_days, on_hold, hold_reason
		FROM customers WHERE id=$1 FOR UPDATE`, id).
		Scan(&c.ID, &c.Name, &c.Contact, &c.PaymentTermDay, &c.OnHold, &c.HoldReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, pErr("load customer", err)
	}

	logged := len(c.Log)
	if err := fn(&c); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE customers SET on_hold=$2, hold_reason=$3 WHERE id=$1`,
		c.ID, c.OnHold, c.HoldReason); err != nil {
		return nil, pErr("update customer", err)
	}
	for _, e := range c.Log[logged:] {
		if _, err := tx.Exec(ctx, `
			INSERT INTO account_log(account_id, at, actor, action, memo)
			VALUES ($1,$2,$3,$4,$5)`, c.ID, e.At, e.Actor, e.Action, e.Memo); err != nil {
			return nil, pErr("insert account log", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, pErr("commit", err)
	}
	return &c, nil
}

// ApplySupplier is the supplier-side twin of ApplyCustomer.
func (r *AccountRepo) ApplySupplier(ctx context.Context, id string, fn func(*Supplier) error) (*Supplier, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, pErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var s Supplier
	err = tx.QueryRow(ctx, `
		SELECT id, name, contact, blacklisted, blacklist_reason
		FROM suppliers WHERE id=$1 FOR UPDATE`, id).
		Scan(&s.ID, &s.Name, &s.Contact, &s.Blacklisted, &s.BlacklistReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, pErr("load supplier", err)
	}

	logged := len(s.Log)
	if err := fn(&s); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE suppliers SET blacklisted=$2, blacklist_reason=$3 WHERE id=$1`,
		s.ID, s.Blacklisted, s.BlacklistReason); err != nil {
		return nil, pErr("update supplier", err)
	}
	for _, e := range s.Log[logged:] {
		if _, err := tx.Exec(ctx, `
			INSERT INTO account_log(account_id, at, actor, action, memo)
			VALUES ($1,$2,$3,$4,$5)`, s.ID, e.At, e.Actor, e.Action, e.Memo); err != nil {
			return nil, pErr("insert account log", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, pErr("commit", err)
	}
	return &s, nil
}
