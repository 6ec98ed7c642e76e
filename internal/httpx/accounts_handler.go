package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MoatazNegm/NexusERP-sub001/internal/lifecycle"
)

// AccountsHandler exposes the customer hold and supplier blacklist
// toggles.
type AccountsHandler struct {
	Repo *lifecycle.AccountRepo
}

func (h *AccountsHandler) Register(r *chi.Mux) {
	r.Get("/customers", h.listCustomers)
	r.Post("/customers/{id}/hold", h.setCustomerHold)
	r.Get("/suppliers", h.listSuppliers)
	r.Post("/suppliers/{id}/blacklist", h.blacklistSupplier)
	r.Delete("/suppliers/{id}/blacklist", h.removeBlacklist)
}

type accountActionReq struct {
	Actor  string `json:"actor"`
	Memo   string `json:"memo"`
	HoldOn bool   `json:"hold_on"` // customer hold only
}

func (h *AccountsHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context5(r)
	defer cancel()

	cs, err := h.Repo.ListCustomers(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *AccountsHandler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context5(r)
	defer cancel()

	ss, err := h.Repo.ListSuppliers(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ss)
}

func (h *AccountsHandler) setCustomerHold(w http.ResponseWriter, r *http.Request) {
	var req accountActionReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context5(r)
	defer cancel()

	now := time.Now().UTC()
	c, err := h.Repo.ApplyCustomer(ctx, chi.URLParam(r, "id"), func(c *lifecycle.Customer) error {
		return c.SetHold(req.HoldOn, req.Memo, req.Actor, now)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *AccountsHandler) blacklistSupplier(w http.ResponseWriter, r *http.Request) {
	var req accountActionReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context5(r)
	defer cancel()

	now := time.Now().UTC()
	s, err := h.Repo.ApplySupplier(ctx, chi.URLParam(r, "id"), func(s *lifecycle.Supplier) error {
		return s.Blacklist(req.Memo, req.Actor, now)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *AccountsHandler) removeBlacklist(w http.ResponseWriter, r *http.Request) {
	var req accountActionReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context5(r)
	defer cancel()

	now := time.Now().UTC()
	s, err := h.Repo.ApplySupplier(ctx, chi.URLParam(r, "id"), func(s *lifecycle.Supplier) error {
		return s.RemoveBlacklist(req.Memo, req.Actor, now)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
