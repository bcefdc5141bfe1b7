package errors_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	"github.com/dalemusser/edirhub/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestForbidden_Status(t *testing.T) {
	h := uierrors.NewHandler()
	rec := httptest.NewRecorder()
	testutil.Serve(h.Forbidden, rec, httptest.NewRequest("GET", "/forbidden", nil))

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandlers_CoverForbiddenView(t *testing.T) {
	hs := uierrors.NewHandler().Handlers()
	if _, ok := hs[routetable.Key{View: routetable.ViewForbidden}]; !ok {
		t.Error("expected a handler for the forbidden view")
	}
}

func TestErrorLogger_LogServerError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/bole/treasurer/dashboard", nil)
	func() {
		defer func() { _ = recover() }()
		el.LogServerError(rec, req, "load contributions failed", errors.New("boom"), "A database error occurred.", "/")
	}()

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	entries := logs.FilterMessage("load contributions failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/bole/treasurer/dashboard" {
		t.Errorf("expected path field, got %v", entries[0].ContextMap())
	}
}

func TestErrorLogger_LogBadRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		el.LogBadRequest(rec, httptest.NewRequest("POST", "/edir/request", nil), "parse form failed", errors.New("bad"), "Invalid form data.", "/edir/request")
	}()

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if logs.FilterMessage("parse form failed").Len() != 1 {
		t.Error("expected a warn entry")
	}
}
