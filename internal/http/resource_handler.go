package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/encanta/encanta/internal/domain"
)

// ResourceGateway is the set of gateway operations served for one
// workspace-scoped entity
type ResourceGateway[T any, C any, P any] interface {
	List(ctx context.Context, parentID string, filters map[string]string) domain.ActionResult[[]*T]
	Get(ctx context.Context, id string) domain.ActionResult[*T]
	Create(ctx context.Context, input *C) domain.ActionResult[*T]
	Update(ctx context.Context, id string, patch *P) domain.ActionResult[*T]
	Delete(ctx context.Context, id string) domain.ActionResult[string]
}

// ResourceHandler exposes a ResourceGateway as REST routes. Lists take their
// parent from the parentParam query parameter; every other query parameter is
// handed to the gateway as a filter.
type ResourceHandler[T any, C any, P any] struct {
	gateway     ResourceGateway[T, C, P]
	parentParam string
}

func NewResourceHandler[T any, C any, P any](gateway ResourceGateway[T, C, P], parentParam string) *ResourceHandler[T, C, P] {
	return &ResourceHandler[T, C, P]{gateway: gateway, parentParam: parentParam}
}

// RegisterRoutes mounts the collection and item routes on r
func (h *ResourceHandler[T, C, P]) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *ResourceHandler[T, C, P]) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := make(map[string]string, len(query))
	for key := range query {
		if key != h.parentParam {
			filters[key] = query.Get(key)
		}
	}

	writeResult(w, http.StatusOK, h.gateway.List(r.Context(), query.Get(h.parentParam), filters))
}

func (h *ResourceHandler[T, C, P]) Create(w http.ResponseWriter, r *http.Request) {
	input := new(C)
	if !decodeJSON(w, r, input, false) {
		return
	}
	writeResult(w, http.StatusCreated, h.gateway.Create(r.Context(), input))
}

func (h *ResourceHandler[T, C, P]) Get(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, h.gateway.Get(r.Context(), chi.URLParam(r, "id")))
}

func (h *ResourceHandler[T, C, P]) Update(w http.ResponseWriter, r *http.Request) {
	patch := new(P)
	if !decodeJSON(w, r, patch, false) {
		return
	}
	writeResult(w, http.StatusOK, h.gateway.Update(r.Context(), chi.URLParam(r, "id"), patch))
}

func (h *ResourceHandler[T, C, P]) Delete(w http.ResponseWriter, r *http.Request) {
	writeDeleted(w, h.gateway.Delete(r.Context(), chi.URLParam(r, "id")))
}

// ListUnder lists the rows whose parent is named by the path parameter param
func (h *ResourceHandler[T, C, P]) ListUnder(param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, http.StatusOK, h.gateway.List(r.Context(), chi.URLParam(r, param), nil))
	}
}

// CreateUnder creates a row under the parent named by the path parameter
// param. bind copies the parent id into the decoded input, overriding the body.
func (h *ResourceHandler[T, C, P]) CreateUnder(param string, bind func(input *C, parentID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := new(C)
		if !decodeJSON(w, r, input, false) {
			return
		}
		bind(input, chi.URLParam(r, param))
		writeResult(w, http.StatusCreated, h.gateway.Create(r.Context(), input))
	}
}
