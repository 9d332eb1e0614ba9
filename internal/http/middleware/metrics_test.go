package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_LabelsByRouteAndAudience(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(), Identity(IdentityOptions{}))
	r.GET("/loans/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	member := httpReqs.WithLabelValues("GET", "/loans/:id", "200", "member")
	staff := httpReqs.WithLabelValues("GET", "/loans/:id", "200", "staff")
	missing := httpReqs.WithLabelValues("GET", "unmatched", "404", "member")
	baseMember, baseStaff, baseMissing := testutil.ToFloat64(member), testutil.ToFloat64(staff), testutil.ToFloat64(missing)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/loans/a", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/loans/b", nil))

	req := httptest.NewRequest(http.MethodGet, "/loans/c", nil)
	req.Header.Set("X-User-Role", "staff")
	r.ServeHTTP(httptest.NewRecorder(), req)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	if d := testutil.ToFloat64(member) - baseMember; d != 2 {
		t.Fatalf("member delta = %v", d)
	}
	if d := testutil.ToFloat64(staff) - baseStaff; d != 1 {
		t.Fatalf("staff delta = %v", d)
	}
	if d := testutil.ToFloat64(missing) - baseMissing; d != 1 {
		t.Fatalf("unmatched delta = %v", d)
	}
	if v := testutil.ToFloat64(httpInflight); v != 0 {
		t.Fatalf("inflight = %v after requests finished", v)
	}
}
