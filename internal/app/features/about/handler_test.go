package about_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/edirhub/internal/app/features/about"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	"github.com/dalemusser/edirhub/internal/testutil"
	"go.uber.org/zap"
)

func TestServeAbout_DoesNotPanicBeforeRender(t *testing.T) {
	h := about.NewHandler(zap.NewNop())
	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeAbout, rec, httptest.NewRequest("GET", "/about", nil))
}

func TestHandlers_BindAbout(t *testing.T) {
	h := about.NewHandler(zap.NewNop())
	if about.Handlers(h)[routetable.Key{View: routetable.ViewAbout}] == nil {
		t.Error("expected the about view to be bound")
	}
}
