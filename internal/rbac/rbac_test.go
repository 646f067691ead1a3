package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"learner", "practice:submit", true},
		{"learner", "lesson:create", false},
		{"author", "practice:view-all", true}, // via practice:*
		{"author", "lesson:create", true},
		{"admin", "anything:at-all", true}, // via *
		{"ghost", "lesson:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerAny(t *testing.T) {
	c := NewChecker(nil)
	if !c.Any("learner", "practice:view-own", "practice:view-all") {
		t.Fatal("learner holds view-own, Any must pass")
	}
	if !c.Any("author", "practice:view-own", "practice:view-all") {
		t.Fatal("author holds view-all via practice:*, Any must pass")
	}
	if c.Any("ghost", "practice:view-own", "practice:view-all") {
		t.Fatal("unknown role must fail Any")
	}
}

func TestRequireAnyMiddleware(t *testing.T) {
	h := RequireAny("practice:view-own", "practice:view-all")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	for role, want := range map[string]int{
		"learner": http.StatusOK,
		"author":  http.StatusOK,
		"":        http.StatusForbidden,
		"ghost":   http.StatusForbidden,
	} {
		req := httptest.NewRequest("GET", "/", nil)
		if role != "" {
			req = req.WithContext(WithRole(req.Context(), role))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %q: status = %d, want %d", role, rec.Code, want)
		}
	}
}
