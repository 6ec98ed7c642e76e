package lifecycle

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo persists order aggregates. Every transition goes through Apply,
// which holds a row lock and a version compare-and-swap for the duration
// of the mutation, so financial actions on one order are serialized and
// a stale writer gets ErrConcurrencyConflict instead of a lost update.
type Repo struct{ DB *pgxpool.Pool }

func pErr(op string, err error) error { return &PersistenceError{Op: op, Err: err} }

// CreateOrder inserts a new aggregate. The customer reference must be
// unique among active (non-terminal) orders.
func (r *Repo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return pErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM orders
			WHERE customer_ref = $1 AND status NOT IN ('REJECTED','FULFILLED')
		)`, o.CustomerRef).Scan(&exists)
	if err != nil {
		return pErr("check customer_ref", err)
	}
	if exists {
		return &ValidationError{Field: "customerRef", Reason: "already used by an active order"}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(
			id, number, customer_ref, customer_name, order_date, received_at,
			entered_at, status, previous_status, invoice_number,
			payment_sla_days, hold_reason, reject_reason, version,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.ID, o.Number, o.CustomerRef, o.CustomerName, o.OrderDate, o.ReceivedAt,
		o.EnteredAt, o.Status, o.PreviousStatus, o.InvoiceNumber,
		o.PaymentSLADays, o.HoldReason, o.RejectReason, o.Version,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return pErr("insert order", err)
	}

	for _, li := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO line_items(id, order_id, description, quantity, unit, unit_price, tax_percent, accepted)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			li.ID, o.ID, li.Description, li.Quantity, li.Unit, li.UnitPrice, li.TaxPercent, li.Accepted); err != nil {
			return pErr("insert line item", err)
		}
		for _, c := range li.Components {
			if _, err := tx.Exec(ctx, `
				INSERT INTO components(id, line_item_id, reference, quantity, unit_cost, source, status, status_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				c.ID, li.ID, c.Reference, c.Quantity, c.UnitCost, c.Source, c.Status, c.StatusAt); err != nil {
				return pErr("insert component", err)
			}
		}
	}
	if err := insertLogEntries(ctx, tx, o.ID, o.Log); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return pErr("commit", err)
	}
	return nil
}

// GetOrder loads a full aggregate.
func (r *Repo) GetOrder(ctx context.Context, id string) (*Order, error) {
	return loadOrder(ctx, r.DB, id, false)
}

// ListOrders loads every order as a full aggregate, newest first. The
// SLA sentinel and compliance monitor need the log history, so nothing
// lighter would do for the sweep path.
func (r *Repo) ListOrders(ctx context.Context) ([]*Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT id FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, pErr("list orders", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, pErr("scan order id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, pErr("list orders", err)
	}

	out := make([]*Order, 0, len(ids))
	for _, id := range ids {
		o, err := loadOrder(ctx, r.DB, id, false)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// ListActiveOrders returns the non-terminal aggregates the sweeper
// evaluates.
func (r *Repo) ListActiveOrders(ctx context.Context) ([]*Order, error) {
	all, err := r.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, o := range all {
		if !o.Status.IsTerminal() {
			active = append(active, o)
		}
	}
	return active, nil
}

// Apply runs one guarded transition under a row lock. expectedVersion is
// the precondition: pass the version the caller read, or -1 to skip the
// check (single-writer contexts only).
func (r *Repo) Apply(ctx context.Context, orderID string, expectedVersion int, fn func(*Order) error) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, pErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := loadOrder(ctx, tx, orderID, true)
	if err != nil {
		return nil, err
	}
	if err := CheckVersion(o, expectedVersion); err != nil {
		return nil, err
	}

	logged := len(o.Log)
	overridden := len(o.FinanceOverrides)
	if err := fn(o); err != nil {
		return nil, err // rollback via defer; nothing persisted
	}
	o.Version++

	_, err = tx.Exec(ctx, `
		UPDATE orders SET
			status = $2, previous_status = $3, invoice_number = $4,
			hold_reason = $5, reject_reason = $6, version = $7, updated_at = $8
		WHERE id = $1`,
		o.ID, o.Status, o.PreviousStatus, o.InvoiceNumber,
		o.HoldReason, o.RejectReason, o.Version, o.UpdatedAt)
	if err != nil {
		return nil, pErr("update order", err)
	}

	// Payments are replaced wholesale: cancellation removes by index, so
	// reindexing the rows is simpler than diffing them.
	if _, err := tx.Exec(ctx, `DELETE FROM payments WHERE order_id=$1`, o.ID); err != nil {
		return nil, pErr("clear payments", err)
	}
	for i, p := range o.Payments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO payments(order_id, idx, amount, at, comment)
			VALUES ($1,$2,$3,$4,$5)`, o.ID, i, p.Amount, p.At, p.Comment); err != nil {
			return nil, pErr("insert payment", err)
		}
	}

	for _, li := range o.Items {
		for _, c := range li.Components {
			if _, err := tx.Exec(ctx, `
				UPDATE components SET status=$2, status_at=$3 WHERE id=$1`,
				c.ID, c.Status, c.StatusAt); err != nil {
				return nil, pErr("update component", err)
			}
		}
	}

	for _, fo := range o.FinanceOverrides[overridden:] {
		if _, err := tx.Exec(ctx, `
			INSERT INTO finance_overrides(order_id, type, at, actor, memo)
			VALUES ($1,$2,$3,$4,$5)`, o.ID, fo.Type, fo.At, fo.Actor, fo.Memo); err != nil {
			return nil, pErr("insert finance override", err)
		}
	}

	if err := insertLogEntries(ctx, tx, o.ID, o.Log[logged:]); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, pErr("commit", err)
	}
	return o, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertLogEntries(ctx context.Context, tx pgx.Tx, orderID string, entries []LogEntry) error {
	for _, e := range entries {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_log(order_id, at, actor, status, action, memo)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			orderID, e.At, e.Actor, e.Status, e.Action, e.Memo); err != nil {
			return pErr("insert log entry", err)
		}
	}
	return nil
}

func loadOrder(ctx context.Context, q queryer, id string, forUpdate bool) (*Order, error) {
	sel := `
		SELECT id, number, customer_ref, customer_name, order_date, received_at,
		       entered_at, status, previous_status, invoice_number,
		       payment_sla_days, hold_reason, reject_reason, version,
		       created_at, updated_at
		FROM orders WHERE id=$1`
	if forUpdate {
		sel += ` FOR UPDATE`
	}
	var o Order
	err := q.QueryRow(ctx, sel, id).Scan(
		&o.ID, &o.Number, &o.CustomerRef, &o.CustomerName, &o.OrderDate, &o.ReceivedAt,
		&o.EnteredAt, &o.Status, &o.PreviousStatus, &o.InvoiceNumber,
		&o.PaymentSLADays, &o.HoldReason, &o.RejectReason, &o.Version,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, pErr("load order", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, description, quantity, unit, unit_price, tax_percent, accepted
		FROM line_items WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, pErr("load line items", err)
	}
	for rows.Next() {
		var li LineItem
		li.OrderID = id
		if err := rows.Scan(&li.ID, &li.Description, &li.Quantity, &li.Unit,
			&li.UnitPrice, &li.TaxPercent, &li.Accepted); err != nil {
			rows.Close()
			return nil, pErr("scan line item", err)
		}
		o.Items = append(o.Items, li)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, pErr("load line items", err)
	}

	for i := range o.Items {
		llrows, err := q.Query(ctx, `
			SELECT at, actor, status, action, memo FROM line_item_log
			WHERE line_item_id=$1 ORDER BY at, id`, o.Items[i].ID)
		if err != nil {
			return nil, pErr("load line item log", err)
		}
		for llrows.Next() {
			var e LogEntry
			if err := llrows.Scan(&e.At, &e.Actor, &e.Status, &e.Action, &e.Memo); err != nil {
				llrows.Close()
				return nil, pErr("scan line item log", err)
			}
			o.Items[i].Log = append(o.Items[i].Log, e)
		}
		llrows.Close()
		if err := llrows.Err(); err != nil {
			return nil, pErr("load line item log", err)
		}

		crows, err := q.Query(ctx, `
			SELECT id, reference, quantity, unit_cost, source, status, status_at
			FROM components WHERE line_item_id=$1 ORDER BY id`, o.Items[i].ID)
		if err != nil {
			return nil, pErr("load components", err)
		}
		for crows.Next() {
			var c Component
			c.LineItemID = o.Items[i].ID
			if err := crows.Scan(&c.ID, &c.Reference, &c.Quantity, &c.UnitCost,
				&c.Source, &c.Status, &c.StatusAt); err != nil {
				crows.Close()
				return nil, pErr("scan component", err)
			}
			o.Items[i].Components = append(o.Items[i].Components, c)
		}
		crows.Close()
		if err := crows.Err(); err != nil {
			return nil, pErr("load components", err)
		}
	}

	prows, err := q.Query(ctx, `
		SELECT amount, at, comment FROM payments WHERE order_id=$1 ORDER BY idx`, id)
	if err != nil {
		return nil, pErr("load payments", err)
	}
	for prows.Next() {
		var p Payment
		if err := prows.Scan(&p.Amount, &p.At, &p.Comment); err != nil {
			prows.Close()
			return nil, pErr("scan payment", err)
		}
		o.Payments = append(o.Payments, p)
	}
	prows.Close()
	if err := prows.Err(); err != nil {
		return nil, pErr("load payments", err)
	}

	lrows, err := q.Query(ctx, `
		SELECT at, actor, status, action, memo FROM order_log
		WHERE order_id=$1 ORDER BY at, id`, id)
	if err != nil {
		return nil, pErr("load log", err)
	}
	for lrows.Next() {
		var e LogEntry
		if err := lrows.Scan(&e.At, &e.Actor, &e.Status, &e.Action, &e.Memo); err != nil {
			lrows.Close()
			return nil, pErr("scan log entry", err)
		}
		o.Log = append(o.Log, e)
	}
	lrows.Close()
	if err := lrows.Err(); err != nil {
		return nil, pErr("load log", err)
	}

	frows, err := q.Query(ctx, `
		SELECT type, at, actor, memo FROM finance_overrides
		WHERE order_id=$1 ORDER BY at`, id)
	if err != nil {
		return nil, pErr("load finance overrides", err)
	}
	for frows.Next() {
		var fo FinanceOverride
		if err := frows.Scan(&fo.Type, &fo.At, &fo.Actor, &fo.Memo); err != nil {
			frows.Close()
			return nil, pErr("scan finance override", err)
		}
		o.FinanceOverrides = append(o.FinanceOverrides, fo)
	}
	frows.Close()
	if err := frows.Err(); err != nil {
		return nil, pErr("load finance overrides", err)
	}

	return &o, nil
}
