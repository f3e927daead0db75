package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"commuto/internal/ports"
)

// --- Request DTOs (HTTP boundary) ---

type placeBidRequest struct {
	Amount  float64 `json:"amount"`
	Message string  `json:"message,omitempty"`
}

type counterBidRequest struct {
	Amount  float64 `json:"amount"`
	Message string  `json:"message,omitempty"`
}

// bidID pulls and validates the bid_id path segment.
func (handler *MarketplaceHTTPHandler) bidID(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("bid_id"))
	if id == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "bid_id is required", errors.New("missing bid_id"))
		return "", false
	}
	return id, true
}

// ----- Handler: POST /bids/{trip_id} -----

func (handler *MarketplaceHTTPHandler) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tripID, ok := handler.tripID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, tripID)

	var req placeBidRequest
	if !handler.decodeBody(ctx, w, r, 256<<10, &req) {
		return
	}

	actor, err := handler.principal(r)
	if err != nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.PlaceBid(ctxWithTimeout, actor, ports.PlaceBidInput{
		TripID:  tripID,
		Amount:  req.Amount,
		Message: strings.TrimSpace(req.Message),
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}

// ----- Handler: GET /bids/{trip_id}/all -----

func (handler *MarketplaceHTTPHandler) handleListTripBids(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tripID, ok := handler.tripID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, tripID)

	actor, err := handler.principal(r)
	if err != nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	bids, err := handler.svc.ListTripBids(ctxWithTimeout, actor, tripID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{"bids": bids})
}

// ----- Handler: POST /bids/{bid_id}/accept -----

func (handler *MarketplaceHTTPHandler) handleAcceptBid(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	id, ok := handler.bidID(ctx, w, r)
	if !ok {
		return
	}

	actor, err := handler.principal(r)
	if err != nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.AcceptBid(ctxWithTimeout, actor, id)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	ctxWithTimeout = handler.logger.WithTripID(ctxWithTimeout, res.TripID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

// ----- Handler: POST /bids/{bid_id}/counter -----

func (handler *MarketplaceHTTPHandler) handleCounterBid(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	id, ok := handler.bidID(ctx, w, r)
	if !ok {
		return
	}

	var req counterBidRequest
	if !handler.decodeBody(ctx, w, r, 256<<10, &req) {
		return
	}

	actor, err := handler.principal(r)
	if err != nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.CounterBid(ctxWithTimeout, actor, ports.CounterBidInput{
		BidID:   id,
		Amount:  req.Amount,
		Message: strings.TrimSpace(req.Message),
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	ctxWithTimeout = handler.logger.WithTripID(ctxWithTimeout, res.TripID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}
