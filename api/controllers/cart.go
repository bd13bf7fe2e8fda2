package controllers

import (
	"net/http"

	"github.com/angelmondragon/mercadito-backend/api/responses"
	"github.com/angelmondragon/mercadito-backend/api/validators"
	"github.com/angelmondragon/mercadito-backend/internal/cart"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
)

// CartHandlers serves the session cart endpoints. Sessions decides which
// cart a request belongs to.
type CartHandlers struct {
	Service  cart.Service
	Sessions cart.SessionResolver
	Logger   *logger.Logger
}

// Get returns the session's cart for ?storeId, creating it on first use.
func (h CartHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := h.session(w, r)
		if !ok {
			return
		}
		storeID, err := validators.RequireQueryUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		dto, err := h.Service.Get(r.Context(), sessionID, storeID)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func (h CartHandlers) Add() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := h.session(w, r)
		if !ok {
			return
		}
		var input cart.AddItemInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		dto, err := h.Service.AddItem(r.Context(), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func (h CartHandlers) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := h.session(w, r)
		if !ok {
			return
		}
		var input cart.UpdateItemInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		dto, err := h.Service.UpdateItem(r.Context(), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func (h CartHandlers) Remove() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := h.session(w, r)
		if !ok {
			return
		}
		var input cart.RemoveItemInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		dto, err := h.Service.RemoveItem(r.Context(), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func (h CartHandlers) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := h.session(w, r)
		if !ok {
			return
		}
		var input cart.ClearInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		dto, err := h.Service.Clear(r.Context(), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func (h CartHandlers) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Service == nil || h.Sessions == nil {
		unavailable(w, r, h.Logger, "cart")
		return "", false
	}
	id, err := h.Sessions.Resolve(r)
	if err != nil {
		responses.WriteError(r.Context(), h.Logger, w, err)
		return "", false
	}
	return id, true
}
