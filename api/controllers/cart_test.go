package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mercadito-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
)

type stubCartService struct {
	sessionID string
	added     *cart.AddItemInput
	err       error
}

func (s *stubCartService) dto(storeID uuid.UUID) *cart.CartDTO {
	return &cart.CartDTO{ID: uuid.New(), SessionID: s.sessionID, StoreID: storeID, Subtotal: decimal.Zero}
}

func (s *stubCartService) Get(ctx context.Context, sessionID string, storeID uuid.UUID) (*cart.CartDTO, error) {
	s.sessionID = sessionID
	if s.err != nil {
		return nil, s.err
	}
	return s.dto(storeID), nil
}

func (s *stubCartService) AddItem(ctx context.Context, sessionID string, input cart.AddItemInput) (*cart.CartDTO, error) {
	s.sessionID = sessionID
	s.added = &input
	if s.err != nil {
		return nil, s.err
	}
	return s.dto(input.StoreID), nil
}

func (s *stubCartService) UpdateItem(ctx context.Context, sessionID string, input cart.UpdateItemInput) (*cart.CartDTO, error) {
	return s.dto(input.StoreID), s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, sessionID string, input cart.RemoveItemInput) (*cart.CartDTO, error) {
	return s.dto(input.StoreID), s.err
}

func (s *stubCartService) Clear(ctx context.Context, sessionID string, input cart.ClearInput) (*cart.CartDTO, error) {
	return s.dto(input.StoreID), s.err
}

func TestCartGetRequiresSession(t *testing.T) {
	svc := &stubCartService{}
	h := CartHandlers{Service: svc, Sessions: cart.HeaderCookieResolver{}}
	rec := httptest.NewRecorder()

	h.Get().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart?storeId="+uuid.NewString(), nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error != "session id required" {
		t.Fatalf("unexpected error %q", env.Error)
	}
}

func TestCartGetSharedFallback(t *testing.T) {
	svc := &stubCartService{}
	h := CartHandlers{Service: svc, Sessions: cart.HeaderCookieResolver{AllowSharedFallback: true}}
	rec := httptest.NewRecorder()

	h.Get().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart?storeId="+uuid.NewString(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.sessionID != cart.SharedSessionID {
		t.Fatalf("expected shared session got %q", svc.sessionID)
	}
}

func TestCartGetRequiresStoreID(t *testing.T) {
	h := CartHandlers{Service: &stubCartService{}, Sessions: cart.HeaderCookieResolver{}}
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set(cart.SessionHeader, "abc")
	rec := httptest.NewRecorder()

	h.Get().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCartAddUsesHeaderSession(t *testing.T) {
	svc := &stubCartService{}
	h := CartHandlers{Service: svc, Sessions: cart.HeaderCookieResolver{}}
	storeID, productID := uuid.New(), uuid.New()
	req := jsonRequest(http.MethodPost, "/api/cart/add", `{"productId":"`+productID.String()+`","storeId":"`+storeID.String()+`","quantity":2}`)
	req.Header.Set(cart.SessionHeader, "sess-1")
	rec := httptest.NewRecorder()

	h.Add().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.sessionID != "sess-1" || svc.added == nil || svc.added.Quantity != 2 || svc.added.ProductID != productID {
		t.Fatalf("unexpected call session=%q input=%+v", svc.sessionID, svc.added)
	}
}

func TestCartAddInsufficientStock(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for Pan dulce").
		WithDetails(map[string]any{"available": 1})}
	h := CartHandlers{Service: svc, Sessions: cart.HeaderCookieResolver{}}
	req := jsonRequest(http.MethodPost, "/api/cart/add", `{"productId":"`+uuid.NewString()+`","storeId":"`+uuid.NewString()+`","quantity":5}`)
	req.Header.Set(cart.SessionHeader, "sess-1")
	rec := httptest.NewRecorder()

	h.Add().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code != string(pkgerrors.CodeInsufficientStock) || env.Details == nil {
		t.Fatalf("unexpected envelope %+v", env)
	}
}
