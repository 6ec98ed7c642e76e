package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/MoatazNegm/NexusERP-sub001/internal/kafka"
	"github.com/MoatazNegm/NexusERP-sub001/internal/lifecycle"
	"github.com/MoatazNegm/NexusERP-sub001/internal/redisx"
)

// OrdersHandler exposes the lifecycle transitions over HTTP. Every
// mutating endpoint takes an actor, a memo where the engine demands one,
// and the version the caller last read, so stale writes surface as 409s.
type OrdersHandler struct {
	Repo     *lifecycle.Repo
	Producer *kafkax.Producer // order.lifecycle topic
	Redis    *redis.Client
	Settings lifecycle.Settings
	Service  string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/sla", h.getSLA)
	r.Post("/orders/{id}/advance", h.advance)
	r.Post("/orders/{id}/hold", h.setHold)
	r.Post("/orders/{id}/reject", h.reject)
	r.Post("/orders/{id}/release-margin", h.releaseMargin)
	r.Post("/orders/{id}/invoice", h.issueInvoice)
	r.Delete("/orders/{id}/invoice", h.cancelInvoice)
	r.Post("/orders/{id}/payments", h.recordPayment)
	r.Delete("/orders/{id}/payments/{index}", h.cancelPayment)
	r.Post("/orders/{id}/revert-sourcing", h.revertSourcing)
}

func context5(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 5*time.Second)
}

type actionReq struct {
	Actor           string  `json:"actor"`
	Memo            string  `json:"memo"`
	ExpectedVersion *int    `json:"expected_version"`
	HoldOn          bool    `json:"hold_on"`    // setHold only
	Next            string  `json:"next"`       // advance only
	Amount          float64 `json:"amount"`     // recordPayment only
	RequestID       string  `json:"request_id"` // payment idempotency
}

func (r actionReq) version() int {
	if r.ExpectedVersion == nil {
		return -1
	}
	return *r.ExpectedVersion
}

type createOrderReq struct {
	CustomerRef    string    `json:"customer_ref"`
	CustomerName   string    `json:"customer_name"`
	OrderDate      time.Time `json:"order_date"`
	ReceivedAt     time.Time `json:"received_at"`
	PaymentSLADays int       `json:"payment_sla_days"`
	Actor          string    `json:"actor"`
	Items          []struct {
		Description string  `json:"description"`
		Quantity    float64 `json:"quantity"`
		Unit        string  `json:"unit"`
		UnitPrice   float64 `json:"unit_price"`
		TaxPercent  float64 `json:"tax_percent"`
		Components  []struct {
			Reference string  `json:"reference"`
			Quantity  float64 `json:"quantity"`
			UnitCost  float64 `json:"unit_cost"`
			Source    string  `json:"source"`
		} `json:"components"`
	} `json:"items"`
}

// orderView is the read model: the aggregate plus everything derived
// from it.
type orderView struct {
	*lifecycle.Order
	Label               string                  `json:"label"`
	Profitability       lifecycle.Profitability `json:"profitability"`
	SLA                 lifecycle.SLAEvaluation `json:"sla"`
	MarginBreached      bool                    `json:"margin_breached"`
	ComplianceViolation bool                    `json:"logging_compliance_violation"`
}

func (h *OrdersHandler) view(o *lifecycle.Order, now time.Time) orderView {
	return orderView{
		Order:               o,
		Label:               lifecycle.Info(o.Status).Label,
		Profitability:       lifecycle.ComputeProfitability(o),
		SLA:                 lifecycle.EvaluateSLA(o, now, h.Settings),
		MarginBreached:      lifecycle.MarginBreached(o, h.Settings),
		ComplianceViolation: lifecycle.LoggingDelayViolated(o, h.Settings),
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if !decode(w, r, &req) {
		return
	}
	if req.CustomerRef == "" || req.CustomerName == "" || req.Actor == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context5(r)
	defer cancel()

	now := time.Now().UTC()
	o := lifecycle.NewOrder(req.CustomerRef, req.CustomerName, req.OrderDate, req.ReceivedAt, now, req.Actor)
	o.PaymentSLADays = req.PaymentSLADays
	for _, it := range req.Items {
		li := lifecycle.LineItem{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			Description: it.Description,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			UnitPrice:   it.UnitPrice,
			TaxPercent:  it.TaxPercent,
		}
		for _, c := range it.Components {
			li.Components = append(li.Components, lifecycle.Component{
				ID:         uuid.NewString(),
				LineItemID: li.ID,
				Reference:  c.Reference,
				Quantity:   c.Quantity,
				UnitCost:   c.UnitCost,
				Source:     lifecycle.ComponentSource(c.Source),
				Status:     lifecycle.ComponentPending,
				StatusAt:   now,
			})
		}
		o.Items = append(o.Items, li)
	}

	if err := h.Repo.CreateOrder(ctx, o); err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(ctx, o)
	h.publish(lifecycle.EventOrderCreated, o.ID, r, lifecycle.OrderCreatedPayload{
		OrderID:     o.ID,
		Number:      o.Number,
		CustomerRef: o.CustomerRef,
	})
	writeJSON(w, http.StatusCreated, h.view(o, now))
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context5(r)
	defer cancel()

	os, err := h.Repo.ListOrders(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	now := time.Now().UTC()
	views := make([]orderView, 0, len(os))
	for _, o := range os {
		views = append(views, h.view(o, now))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context5(r)
	defer cancel()

	o, err := h.Repo.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(o, time.Now().UTC()))
}

func (h *OrdersHandler) getSLA(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context5(r)
	defer cancel()

	orderID := chi.URLParam(r, "id")

	// sweeper-written snapshot first, live evaluation as fallback
	key := fmt.Sprintf(redisx.KeySLASnapshot, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	o, err := h.Repo.GetOrder(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lifecycle.EvaluateSLA(o, time.Now().UTC(), h.Settings))
}

// applyTx runs one transition against the store: version-checked
// mutation, status cache refresh, status-changed event.
func (h *OrdersHandler) applyTx(ctx context.Context, r *http.Request, orderID, action string, req actionReq, now time.Time, fn func(*lifecycle.Order) error) (*lifecycle.Order, error) {
	var oldStatus lifecycle.Status
	o, err := h.Repo.Apply(ctx, orderID, req.version(), func(o *lifecycle.Order) error {
		oldStatus = o.Status
		return fn(o)
	})
	if err != nil {
		return nil, err
	}

	h.cacheStatus(ctx, o)
	h.publish(lifecycle.EventStatusChanged, o.ID, r, lifecycle.StatusChangedPayload{
		OrderID:   o.ID,
		OldStatus: oldStatus,
		NewStatus: o.Status,
		Action:    action,
		Actor:     req.Actor,
		Memo:      req.Memo,
	})
	return o, nil
}

// apply is applyTx plus the HTTP response. It returns the updated order
// for handlers that follow up with an action-specific event, or nil when
// an error response was already written.
func (h *OrdersHandler) apply(w http.ResponseWriter, r *http.Request, action string, req actionReq, fn func(*lifecycle.Order, time.Time) error) *lifecycle.Order {
	ctx, cancel := context5(r)
	defer cancel()

	now := time.Now().UTC()
	o, err := h.applyTx(ctx, r, chi.URLParam(r, "id"), action, req, now, func(o *lifecycle.Order) error {
		return fn(o, now)
	})
	if err != nil {
		writeErr(w, err)
		return nil
	}
	writeJSON(w, http.StatusOK, h.view(o, now))
	return o
}

func (h *OrdersHandler) advance(w http.ResponseWriter, r *http.Request) {
	var req actionReq
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, lifecycle.ActionAdvanced, req, func(o *lifecycle.Order, now time.Time) error {
		return o.Advance(lifecycle.Status(req.Next), req.Actor, now, h.Settings)
	})
}

func (h *OrdersHandler) setHold(w http.ResponseWriter, r *http.Request) {
	var req actionReq
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, lifecycle.ActionHoldSet, req, func(o *lifecycle.Order, now time.Time) error {
		return o.SetHold(req.HoldOn, req.Memo, req.Actor, now)
	})
}

func (h *OrdersHandler) reject(w http.ResponseWriter, r *http.Request) {
	var req actionReq
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, lifecycle.ActionRejected, req, func(o *lifecycle.Order, now time.Time) error {
		return o.Reject(req.Memo, req.Actor, now)
	})
}

func (h *OrdersHandler) releaseMargin(w http.ResponseWriter, r *http.Request) {
	var req actionReq
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, lifecycle.ActionMarginRelease, req, func(o *lifecycle.Order, now time.Time) error {
		return o.ReleaseMarginBlock(req.Memo, req.Actor, now)
	})
}

func (h *OrdersHandler) issueInvoice(w http.ResponseWriter, r *http.Request) {
	var req actionReq
	if !decode(w, r, &req) {
		return
	}
	if o := h.apply(w, r, lifecycle.ActionInvoiceIssued, req, func(o *lifecycle.Order, now time.Time) error {
		return o.IssueInvoice(req.Actor, now)
	}); o != nil {
		h.publish(lifecycle.EventInvoiceIssued, o.ID, r, lifecycle.InvoicePayload{
			OrderID:       o.ID,
			InvoiceNumber: o.InvoiceNumber,
			Actor:         req.Actor,
		})
	}
}

func (h *OrdersHandler) cancelInvoice(w http.ResponseWriter, r *http.Request) {
	var req actionReq
	if !decode(w, r, &req) {
		return
	}
	if o := h.apply(w, r, lifecycle.ActionInvoiceCancelled, req, func(o *lifecycle.Order, now time.Time) error {
		return o.CancelInvoice(req.Memo, req.Actor, now)
	}); o != nil {
		h.publish(lifecycle.EventInvoiceCancelled, o.ID, r, lifecycle.InvoicePayload{
			OrderID: o.ID,
			Actor:   req.Actor,
		})
	}
}

func (h *OrdersHandler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req actionReq
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context5(r)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	now := time.Now().UTC()

	var o *lifecycle.Order
	record := func() error {
		var err error
		o, err = h.applyTx(ctx, r, orderID, lifecycle.ActionPaymentRecorded, req, now, func(ord *lifecycle.Order) error {
			return ord.RecordPayment(req.Amount, req.Memo, req.Actor, now)
		})
		return err
	}

	var err error
	if req.RequestID != "" {
		// the request_id is burned only once the payment lands; a failed
		// attempt (version conflict included) leaves it free for the retry
		key := fmt.Sprintf(redisx.KeyIdemPayment, orderID, req.RequestID)
		err = redisx.Once(ctx, h.Redis, key, redisx.TTLIdempotency, record)
	} else {
		err = record()
	}
	if errors.Is(err, redisx.ErrDuplicate) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "duplicate payment request"})
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}

	p := lifecycle.ComputeProfitability(o)
	h.publish(lifecycle.EventPaymentRecorded, o.ID, r, lifecycle.PaymentPayload{
		OrderID:     o.ID,
		Amount:      req.Amount,
		Paid:        p.Paid,
		Outstanding: p.Outstanding,
		NewStatus:   o.Status,
		Actor:       req.Actor,
	})
	writeJSON(w, http.StatusOK, h.view(o, now))
}

func (h *OrdersHandler) cancelPayment(w http.ResponseWriter, r *http.Request) {
	var req actionReq
	if !decode(w, r, &req) {
		return
	}
	var index int
	if _, err := fmt.Sscanf(chi.URLParam(r, "index"), "%d", &index); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment index"})
		return
	}
	var amount float64
	if o := h.apply(w, r, lifecycle.ActionPaymentCancelled, req, func(o *lifecycle.Order, now time.Time) error {
		if index >= 0 && index < len(o.Payments) {
			amount = o.Payments[index].Amount
		}
		return o.CancelPayment(index, req.Memo, req.Actor, now)
	}); o != nil {
		p := lifecycle.ComputeProfitability(o)
		h.publish(lifecycle.EventPaymentCancelled, o.ID, r, lifecycle.PaymentPayload{
			OrderID:     o.ID,
			Amount:      amount,
			Paid:        p.Paid,
			Outstanding: p.Outstanding,
			NewStatus:   o.Status,
			Actor:       req.Actor,
		})
	}
}

func (h *OrdersHandler) revertSourcing(w http.ResponseWriter, r *http.Request) {
	var req actionReq
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, lifecycle.ActionRevertedSourcing, req, func(o *lifecycle.Order, now time.Time) error {
		return o.RevertToSourcing(req.Memo, req.Actor, now)
	})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *lifecycle.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	body := map[string]any{"status": o.Status, "version": o.Version, "updated_at": o.UpdatedAt}
	_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(body), redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) publish(eventType, orderID string, r *http.Request, payload any) {
	env := lifecycle.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	h.Producer.Publish(lifecycle.PartitionKey(orderID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
