package version

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "onboarding/pkg/domain"
	"onboarding/pkg/requestcontext"
)

func TestExtractVersion(t *testing.T) {
	var seen id.APIVersion
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.APIVersion(r.Context())
	})

	rr := httptest.NewRecorder()
	ExtractVersion(id.APIVersionV1)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/customer", nil))

	assert.Equal(t, id.APIVersionV1, seen)
	assert.Equal(t, "v1", rr.Header().Get("X-API-Version"))
}
