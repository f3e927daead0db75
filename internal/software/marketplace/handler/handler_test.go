package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commuto/internal/domain/fault"
	"commuto/internal/domain/user"
	"commuto/internal/general/jwt"
	"commuto/internal/general/logger"
	"commuto/internal/general/ratelimit"
	"commuto/internal/general/websocket"
	"commuto/internal/ports"
)

// stubService returns canned results so the tests exercise only the HTTP
// boundary: decoding, auth, rate limits and error mapping.
type stubService struct {
	createTrip func(user.Principal, ports.CreateTripInput) (ports.CreateTripResult, error)
	placeBid   func(user.Principal, ports.PlaceBidInput) (ports.BidResult, error)
	acceptBid  func(user.Principal, string) (ports.AcceptBidResult, error)
	getTrip    func(user.Principal, string) (ports.TripResult, error)
}

func (s *stubService) CreateTrip(_ context.Context, actor user.Principal, in ports.CreateTripInput) (ports.CreateTripResult, error) {
	return s.createTrip(actor, in)
}
func (s *stubService) ListOpenTrips(context.Context, user.Principal) ([]ports.TripResult, error) {
	return nil, nil
}
func (s *stubService) GetTrip(_ context.Context, actor user.Principal, tripID string) (ports.TripResult, error) {
	return s.getTrip(actor, tripID)
}
func (s *stubService) CancelTrip(context.Context, user.Principal, ports.CancelTripInput) (ports.CancelTripResult, error) {
	return ports.CancelTripResult{}, nil
}
func (s *stubService) VerifyStartCode(context.Context, user.Principal, ports.VerifyStartCodeInput) (ports.VerifyStartCodeResult, error) {
	return ports.VerifyStartCodeResult{}, nil
}
func (s *stubService) CompleteTrip(context.Context, user.Principal, string) (ports.CompleteTripResult, error) {
	return ports.CompleteTripResult{}, nil
}
func (s *stubService) UpdateLocation(context.Context, user.Principal, ports.UpdateLocationInput) (ports.UpdateLocationResult, error) {
	return ports.UpdateLocationResult{}, nil
}
func (s *stubService) PlaceBid(_ context.Context, actor user.Principal, in ports.PlaceBidInput) (ports.BidResult, error) {
	return s.placeBid(actor, in)
}
func (s *stubService) ListTripBids(context.Context, user.Principal, string) ([]ports.BidResult, error) {
	return nil, nil
}
func (s *stubService) AcceptBid(_ context.Context, actor user.Principal, bidID string) (ports.AcceptBidResult, error) {
	return s.acceptBid(actor, bidID)
}
func (s *stubService) CounterBid(context.Context, user.Principal, ports.CounterBidInput) (ports.BidResult, error) {
	return ports.BidResult{}, nil
}

type testEnv struct {
	mux  *http.ServeMux
	auth *jwt.Manager
	svc  *stubService
}

func newTestEnv(t *testing.T, quotas Quotas) *testEnv {
	t.Helper()
	log := logger.New("handler-test")
	auth := jwt.NewManager("test-secret-key-32-bytes-long!!!", time.Hour)
	svc := &stubService{}

	h := NewMarketplaceHTTPHandler(
		svc,
		log,
		auth,
		websocket.NewHandler(log, auth, websocket.NewHub(log)),
		ratelimit.New(time.Minute),
		quotas,
	)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return &testEnv{mux: mux, auth: auth, svc: svc}
}

func (env *testEnv) token(t *testing.T, userID string, role user.Role) string {
	t.Helper()
	tok, _, err := env.auth.IssueUserToken(userID, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (env *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, req)
	return w
}

func TestCreateTripEndpoint(t *testing.T) {
	env := newTestEnv(t, Quotas{Write: 10, Action: 10, Read: 10, Location: 10})
	env.svc.createTrip = func(actor user.Principal, in ports.CreateTripInput) (ports.CreateTripResult, error) {
		if actor.UserID != "pas-1" || in.Seats != 2 {
			t.Errorf("actor = %+v, in = %+v", actor, in)
		}
		return ports.CreateTripResult{
			TripResult: ports.TripResult{TripID: "trip-1", Status: "PENDING"},
			Message:    "Trip posted, waiting for driver bids",
		}, nil
	}

	body := `{"origin":{"address":"A","lat":41.3,"lng":69.2},"destination":{"address":"B","lat":41.2,"lng":69.3},"start_time":"2030-01-01T10:00:00Z","seats":2}`
	w := env.do("POST", "/trips", env.token(t, "pas-1", user.RolePassenger), body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var res ports.CreateTripResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TripID != "trip-1" {
		t.Errorf("res = %+v", res)
	}
}

func TestCreateTripRejectsUnknownFields(t *testing.T) {
	env := newTestEnv(t, Quotas{Write: 10, Action: 10, Read: 10, Location: 10})
	env.svc.createTrip = func(user.Principal, ports.CreateTripInput) (ports.CreateTripResult, error) {
		t.Fatal("service must not be called")
		return ports.CreateTripResult{}, nil
	}

	body := `{"seats":2,"bogus":true}`
	w := env.do("POST", "/trips", env.token(t, "pas-1", user.RolePassenger), body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestCreateTripRequiresPassengerToken(t *testing.T) {
	env := newTestEnv(t, Quotas{Write: 10, Action: 10, Read: 10, Location: 10})

	w := env.do("POST", "/trips", env.token(t, "drv-1", user.RoleDriver), `{}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("driver token: status = %d", w.Code)
	}

	w = env.do("POST", "/trips", "", `{}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", w.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	env := newTestEnv(t, Quotas{Write: 100, Action: 100, Read: 100, Location: 100})

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fault.Validation("bad input"), http.StatusBadRequest},
		{"forbidden", fault.Forbidden("not yours"), http.StatusForbidden},
		{"not found", fault.NotFound("no such bid"), http.StatusNotFound},
		{"conflict", fault.Conflict("row locked"), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env.svc.acceptBid = func(user.Principal, string) (ports.AcceptBidResult, error) {
				return ports.AcceptBidResult{}, tc.err
			}
			w := env.do("POST", "/bids/bid-1/accept", env.token(t, "pas-1", user.RolePassenger), "")
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestRateLimitReturns429WithRetryAfter(t *testing.T) {
	env := newTestEnv(t, Quotas{Write: 2, Action: 100, Read: 100, Location: 100})
	env.svc.placeBid = func(user.Principal, ports.PlaceBidInput) (ports.BidResult, error) {
		return ports.BidResult{BidID: "bid-1", Status: "PENDING"}, nil
	}

	tok := env.token(t, "drv-1", user.RoleDriver)
	for i := 0; i < 2; i++ {
		if w := env.do("POST", "/bids/trip-1", tok, `{"amount":20}`); w.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, body = %s", i, w.Code, w.Body.String())
		}
	}

	w := env.do("POST", "/bids/trip-1", tok, `{"amount":20}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// quotas are per user: another driver is still admitted
	other := env.token(t, "drv-2", user.RoleDriver)
	if w := env.do("POST", "/bids/trip-1", other, `{"amount":20}`); w.Code != http.StatusCreated {
		t.Errorf("other driver: status = %d", w.Code)
	}
}

func TestPlaceBidQuotaMatchesShippedDefaults(t *testing.T) {
	// the defaults applied when config.yaml leaves ratelimit unset
	env := newTestEnv(t, Quotas{Write: 5, Action: 10, Read: 30, Location: 60})
	env.svc.placeBid = func(user.Principal, ports.PlaceBidInput) (ports.BidResult, error) {
		return ports.BidResult{BidID: "bid-1", Status: "PENDING"}, nil
	}

	tok := env.token(t, "drv-1", user.RoleDriver)
	for i := 0; i < 5; i++ {
		if w := env.do("POST", "/bids/trip-1", tok, `{"amount":20}`); w.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, body = %s", i, w.Code, w.Body.String())
		}
	}

	w := env.do("POST", "/bids/trip-1", tok, `{"amount":20}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("sixth bid: status = %d", w.Code)
	}

	// budgets are per operation: exhausting place_bid leaves the driver's
	// other endpoints untouched, even those sharing the same tier number
	if w := env.do("POST", "/trips/trip-1/complete", tok, ""); w.Code != http.StatusOK {
		t.Errorf("complete after bid exhaustion: status = %d", w.Code)
	}
	if w := env.do("GET", "/trips/open", tok, ""); w.Code != http.StatusOK {
		t.Errorf("list after bid exhaustion: status = %d", w.Code)
	}
}

func TestGetTripAllowsBothRoles(t *testing.T) {
	env := newTestEnv(t, Quotas{Write: 100, Action: 100, Read: 100, Location: 100})
	env.svc.getTrip = func(_ user.Principal, tripID string) (ports.TripResult, error) {
		return ports.TripResult{TripID: tripID, Status: "ACTIVE"}, nil
	}

	for _, role := range []user.Role{user.RolePassenger, user.RoleDriver} {
		w := env.do("GET", "/trips/trip-9", env.token(t, "u-1", role), "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d", role, w.Code)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, Quotas{Write: 1, Action: 1, Read: 1, Location: 1})
	w := env.do("GET", "/health", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}
