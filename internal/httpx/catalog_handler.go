package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-sales-orders/internal/salesorders"
	"github.com/ariefcatur/go-sales-orders/internal/wire"
)

// CatalogHandler serves the read-only client and item lookups.
type CatalogHandler struct {
	Service *salesorders.Service
	Log     *zap.Logger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/Clients", h.listClients)
	r.Get("/Clients/{id}", h.getClient)
	r.Get("/Items", h.listItems)
	r.Get("/Items/{id}", h.getItem)
}

func (h *CatalogHandler) listClients(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Service.ListClients(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewClientViews(cs))
}

func (h *CatalogHandler) getClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid_id")
		return
	}
	c, err := h.Service.GetClient(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewClientView(c))
}

func (h *CatalogHandler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListItems(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewItemViews(items))
}

func (h *CatalogHandler) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid_id")
		return
	}
	it, err := h.Service.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewItemView(it))
}
