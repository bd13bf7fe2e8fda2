package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		expose    bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, expose: true, detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusBadRequest, expose: true, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, expose: true},
		{code: CodeForbidden, status: http.StatusForbidden, expose: true},
		{code: CodeNotFound, status: http.StatusNotFound, expose: true},
		{code: CodeIdempotency, status: http.StatusBadRequest, expose: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, expose: true},
		{code: CodeInternal, status: http.StatusInternalServerError},
		{code: CodeDependency, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.Expose != tt.expose {
			t.Fatalf("code %s expected expose %v got %v", tt.code, tt.expose, meta.Expose)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("db down")
	err := Wrap(CodeDependency, cause, "load store")
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	outer := fmt.Errorf("handler: %w", err)
	if got := As(outer); got == nil || got.Code() != CodeDependency {
		t.Fatalf("expected dependency code through fmt wrap, got %v", got)
	}
	if !IsCode(outer, CodeDependency) {
		t.Fatal("IsCode should match")
	}
	if IsCode(cause, CodeDependency) {
		t.Fatal("plain errors carry no code")
	}
}

func TestWithDetails(t *testing.T) {
	err := Newf(CodeInsufficientStock, "insufficient stock for %s", "Taco").
		WithDetails(map[string]any{"requested": 2, "available": 1})
	if err.Message() != "insufficient stock for Taco" {
		t.Fatalf("unexpected message %q", err.Message())
	}
	details, ok := err.Details().(map[string]any)
	if !ok || details["available"] != 1 {
		t.Fatalf("unexpected details %#v", err.Details())
	}
}

func TestDumpIncludesPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: PGUniqueViolation, ConstraintName: "users_email_key", TableName: "users"}
	err := Wrap(CodeValidation, pgErr, "create user")
	dump := Dump(err)
	if dump.Code != CodeValidation {
		t.Fatalf("expected validation code, got %s", dump.Code)
	}
	if dump.Postgres == nil || dump.Postgres.Constraint != "users_email_key" {
		t.Fatalf("expected postgres detail, got %#v", dump.Postgres)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %d", len(dump.Chain))
	}
}
