package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"commuto/internal/domain/fault"
	"commuto/internal/domain/user"
	"commuto/internal/general/jwt"
	"commuto/internal/general/logger"
	"commuto/internal/general/ratelimit"
	"commuto/internal/general/websocket"
	"commuto/internal/observability"
	"commuto/internal/ports"
)

// Quotas holds the per-window request budgets. Each route keeps its own
// operation name when keying the limiter, so budgets never pool across
// endpoints; the tiers only group operations that share the same number.
type Quotas struct {
	Write    int // create trip, place bid, verify code, complete
	Action   int // accept, counter, cancel
	Read     int // listings and single reads
	Location int // driver location pings
}

// MarketplaceHTTPHandler adapts HTTP requests to the MarketplaceService.
type MarketplaceHTTPHandler struct {
	svc       ports.MarketplaceService
	logger    *logger.Logger
	auth      *jwt.Manager
	websocket *websocket.Handler
	limiter   *ratelimit.Limiter
	quotas    Quotas
}

// NewMarketplaceHTTPHandler wires an HTTP handler around the MarketplaceService.
func NewMarketplaceHTTPHandler(
	svc ports.MarketplaceService,
	logger *logger.Logger,
	auth *jwt.Manager,
	ws *websocket.Handler,
	limiter *ratelimit.Limiter,
	quotas Quotas,
) *MarketplaceHTTPHandler {
	return &MarketplaceHTTPHandler{
		svc:       svc,
		logger:    logger,
		auth:      auth,
		websocket: ws,
		limiter:   limiter,
		quotas:    quotas,
	}
}

// RegisterRoutes mounts marketplace endpoints on the provided mux. Auth runs
// first so the rate limiter can key on the token subject.
func (handler *MarketplaceHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	authAs := func(roles ...user.Role) func(http.HandlerFunc) http.HandlerFunc {
		return jwt.AuthMiddlewareFunc(handler.auth, roles...)
	}
	limited := func(op string, limit int) func(http.HandlerFunc) http.HandlerFunc {
		return ratelimit.MiddlewareFunc(handler.limiter, op, limit)
	}

	mux.HandleFunc("POST /trips",
		authAs(user.RolePassenger)(limited("create_trip", handler.quotas.Write)(
			handler.instrument("/trips", handler.handleCreateTrip))),
	)
	mux.HandleFunc("GET /trips/open",
		authAs(user.RoleDriver)(limited("list_open_trips", handler.quotas.Read)(
			handler.instrument("/trips/open", handler.handleListOpenTrips))),
	)
	mux.HandleFunc("GET /trips/{trip_id}",
		authAs(user.RolePassenger, user.RoleDriver)(limited("get_trip", handler.quotas.Read)(
			handler.instrument("/trips/{trip_id}", handler.handleGetTrip))),
	)
	mux.HandleFunc("POST /trips/{trip_id}/cancel",
		authAs(user.RolePassenger, user.RoleDriver)(limited("cancel_trip", handler.quotas.Action)(
			handler.instrument("/trips/{trip_id}/cancel", handler.handleCancelTrip))),
	)
	mux.HandleFunc("POST /trips/{trip_id}/verify-code",
		authAs(user.RoleDriver)(limited("verify_code", handler.quotas.Write)(
			handler.instrument("/trips/{trip_id}/verify-code", handler.handleVerifyStartCode))),
	)
	mux.HandleFunc("POST /trips/{trip_id}/complete",
		authAs(user.RoleDriver)(limited("complete_trip", handler.quotas.Write)(
			handler.instrument("/trips/{trip_id}/complete", handler.handleCompleteTrip))),
	)
	mux.HandleFunc("POST /trips/{trip_id}/location",
		authAs(user.RoleDriver)(limited("update_location", handler.quotas.Location)(
			handler.instrument("/trips/{trip_id}/location", handler.handleUpdateLocation))),
	)

	mux.HandleFunc("POST /bids/{trip_id}",
		authAs(user.RoleDriver)(limited("place_bid", handler.quotas.Write)(
			handler.instrument("/bids/{trip_id}", handler.handlePlaceBid))),
	)
	mux.HandleFunc("GET /bids/{trip_id}/all",
		authAs(user.RolePassenger)(limited("list_trip_bids", handler.quotas.Read)(
			handler.instrument("/bids/{trip_id}/all", handler.handleListTripBids))),
	)
	mux.HandleFunc("POST /bids/{bid_id}/accept",
		authAs(user.RolePassenger)(limited("accept_bid", handler.quotas.Action)(
			handler.instrument("/bids/{bid_id}/accept", handler.handleAcceptBid))),
	)
	mux.HandleFunc("POST /bids/{bid_id}/counter",
		authAs(user.RolePassenger)(limited("counter_bid", handler.quotas.Action)(
			handler.instrument("/bids/{bid_id}/counter", handler.handleCounterBid))),
	)

	// WebSocket authenticates itself via the first frame
	mux.HandleFunc("GET /ws", handler.websocket.Connect)

	mux.HandleFunc("GET /health", handler.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /tokens", handler.handleCreateToken)
}

// ----- general helpers -----

type TokenRequest struct {
	UserID string    `json:"user_id"`
	Role   user.Role `json:"role"`
}

// TokenResponse represents the response for token generation
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      user.Role `json:"role"`
}

func (handler *MarketplaceHTTPHandler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if strings.TrimSpace(req.UserID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	tokenString, claims, err := handler.auth.IssueUserToken(req.UserID, req.Role)
	if err != nil {
		handler.httpError(ctx, w, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	response := TokenResponse{
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
		UserID:    req.UserID,
		Role:      req.Role,
	}

	handler.logger.Info(ctx, "token_generated", "JWT token generated successfully",
		map[string]any{"user_id": req.UserID, "role": req.Role.String()})

	handler.jsonResponse(ctx, w, http.StatusCreated, response)
}

func (handler *MarketplaceHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// principal extracts the acting user from the validated JWT claims.
func (handler *MarketplaceHTTPHandler) principal(r *http.Request) (user.Principal, error) {
	claims := jwt.RequireClaims(r)
	if claims == nil {
		return user.Principal{}, errors.New("no claims in request context")
	}
	return claims.Principal()
}

// decodeBody strictly decodes a JSON request body into dst and normalizes the
// failure into an HTTP error. Returns false when a response was already sent.
func (handler *MarketplaceHTTPHandler) decodeBody(ctx context.Context, w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}
	return true
}

func (handler *MarketplaceHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *MarketplaceHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	} else if status == http.StatusUnsupportedMediaType {
		action = "unsupported_media_type"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// serviceError maps a classified service failure onto an HTTP response.
func (handler *MarketplaceHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	fe, ok := fault.As(err)
	if !ok {
		handler.httpError(ctx, w, http.StatusInternalServerError, "internal error", err)
		return
	}

	switch fe.Kind {
	case fault.KindValidation:
		handler.httpError(ctx, w, http.StatusBadRequest, fe.Msg, err)
	case fault.KindForbidden:
		handler.httpError(ctx, w, http.StatusForbidden, fe.Msg, err)
	case fault.KindNotFound:
		handler.httpError(ctx, w, http.StatusNotFound, fe.Msg, err)
	case fault.KindConflict:
		observability.LockConflictsTotal.Inc()
		handler.httpError(ctx, w, http.StatusConflict, fe.Msg, err)
	case fault.KindRateLimited:
		retry := int(fe.RetryAfter.Seconds())
		if retry < 1 {
			retry = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		handler.httpError(ctx, w, http.StatusTooManyRequests, fe.Msg, err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, "internal error", err)
	}
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// instrument records request count and latency per route pattern.
func (handler *MarketplaceHTTPHandler) instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next(rec, r)

		status := strconv.Itoa(rec.status)
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *MarketplaceHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
