package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
)

type sampleBody struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required,e164phone"`
	Open  string `json:"open" validate:"omitempty,hhmm"`
	Day   string `json:"day" validate:"omitempty,weekday"`
}

func TestDecodeJSONBody(t *testing.T) {
	cases := map[string]struct {
		body      string
		wantField string
		wantErr   bool
	}{
		"valid":         {body: `{"name":"Ana","phone":"+5215512345678","open":"09:30","day":"Monday"}`},
		"unknown field": {body: `{"name":"Ana","phone":"+5215512345678","extra":1}`, wantErr: true},
		"bad phone":     {body: `{"name":"Ana","phone":"555"}`, wantErr: true, wantField: "phone"},
		"bad hour":      {body: `{"name":"Ana","phone":"+5215512345678","open":"25:00"}`, wantErr: true, wantField: "open"},
		"bad day":       {body: `{"name":"Ana","phone":"+5215512345678","day":"funday"}`, wantErr: true, wantField: "day"},
		"missing name":  {body: `{"phone":"+5215512345678"}`, wantErr: true, wantField: "name"},
		"empty":         {body: ``, wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest sampleBody
			err := DecodeJSONBody(req, &dest)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tc.wantField == "" {
				return
			}
			details, _ := pkgerrors.As(err).Details().(map[string]string)
			if _, ok := details[tc.wantField]; !ok {
				t.Fatalf("expected detail for %s, got %v", tc.wantField, details)
			}
		})
	}
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	big := `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	var dest sampleBody
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	rctx.URLParams.Add("bad", "nope")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := PathUUID(req, "id")
	if err != nil || got != id {
		t.Fatalf("expected %s got %s err=%v", id, got, err)
	}
	if _, err := PathUUID(req, "bad"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQueryHelpers(t *testing.T) {
	storeID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?storeId="+storeID.String()+"&page=3&limit=500", nil)

	got, err := RequireQueryUUID(req, "storeId")
	if err != nil || got != storeID {
		t.Fatalf("unexpected storeId %s err=%v", got, err)
	}
	if _, err := RequireQueryUUID(req, "productId"); err == nil {
		t.Fatal("expected missing parameter error")
	}
	page := Page(req)
	if page.Page != 3 || page.Limit != 100 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		want   string
		ok     bool
	}{
		"bearer":     {header: "Bearer abc", want: "abc", ok: true},
		"lowercase":  {header: "bearer  abc ", want: "abc", ok: true},
		"raw":        {header: "abc", want: "abc", ok: true},
		"empty":      {header: ""},
		"only label": {header: "Bearer "},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := BearerToken(tc.header)
			if tc.ok != (err == nil) || got != tc.want {
				t.Fatalf("got %q err=%v", got, err)
			}
		})
	}
}
