package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"commuto/internal/general/contracts"
	"commuto/internal/ports"
)

// --- Request DTOs (HTTP boundary) ---

type geoPointRequest struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type createTripRequest struct {
	Origin      geoPointRequest `json:"origin"`
	Destination geoPointRequest `json:"destination"`
	StartTime   string          `json:"start_time"` // RFC 3339
	Seats       int             `json:"seats"`
}

type cancelTripRequest struct {
	Reason string `json:"reason"`
}

type verifyStartCodeRequest struct {
	StartCode string `json:"start_code"`
}

type updateLocationRequest struct {
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	SpeedKMH       *float64 `json:"speed_kmh,omitempty"`
	HeadingDegrees *float64 `json:"heading_degrees,omitempty"`
}

// tripID pulls and validates the trip_id path segment.
func (handler *MarketplaceHTTPHandler) tripID(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("trip_id"))
	if id == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "trip_id is required", errors.New("missing trip_id"))
		return "", false
	}
	return id, true
}

// ----- Handler: POST /trips -----

func (handler *MarketplaceHTTPHandler) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req createTripRequest
	if !handler.decodeBody(ctx, w, r, 1<<20, &req) {
		return
	}

	actor, err := handler.principal(r)
	if err != nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", err)
		return
	}

	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "start_time must be an RFC 3339 timestamp", err)
		return
	}

	in := ports.CreateTripInput{
		Origin: contracts.GeoPoint{
			Address: strings.TrimSpace(req.Origin.Address),
			Lat:     req.Origin.Lat,
			Lng:     req.Origin.Lng,
		},
		Destination: contracts.GeoPoint{
			Address: strings.TrimSpace(req.Destination.Address),
			Lat:     req.Destination.Lat,
			Lng:     req.Destination.Lng,
		},
		StartTime: startTime,
		Seats:     req.Seats,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.CreateTrip(ctxWithTimeout, actor, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	ctxWithTimeout = handler.logger.WithTripID(ctxWithTimeout, res.TripID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}

// ----- Handler: GET /trips/open -----

func (handler *MarketplaceHTTPHandler) handleListOpenTrips(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	actor, err := handler.principal(r)
	if err != nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	trips, err := handler.svc.ListOpenTrips(ctxWithTimeout, actor)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{"trips": trips})
}

// ----- Handler: GET /trips/{trip_id} -----

func (handler *MarketplaceHTTPHandler) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	id, ok := handler.tripID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, id)

	actor, err := handler.principal(r)
	if err != nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.GetTrip(ctxWithTimeout, actor, id)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

// ----- Handler: POST /trips/{trip_id}/cancel -----

func (handler *MarketplaceHTTPHandler) handleCancelTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	id, ok := handler.tripID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, id)

	var req cancelTripRequest
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

	res, err := handler.svc.CancelTrip(ctxWithTimeout, actor, ports.CancelTripInput{
		TripID: id,
		Reason: strings.TrimSpace(req.Reason),
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

// ----- Handler: POST /trips/{trip_id}/verify-code -----

func (handler *MarketplaceHTTPHandler) handleVerifyStartCode(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	id, ok := handler.tripID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, id)

	var req verifyStartCodeRequest
	if !handler.decodeBody(ctx, w, r, 256<<10, &req) {
		return
	}
	if strings.TrimSpace(req.StartCode) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "start_code is required", nil)
		return
	}

	actor, err := handler.principal(r)
	if err != nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.VerifyStartCode(ctxWithTimeout, actor, ports.VerifyStartCodeInput{
		TripID:    id,
		StartCode: strings.TrimSpace(req.StartCode),
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

// ----- Handler: POST /trips/{trip_id}/complete -----

func (handler *MarketplaceHTTPHandler) handleCompleteTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	id, ok := handler.tripID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, id)

	actor, err := handler.principal(r)
	if err != nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.CompleteTrip(ctxWithTimeout, actor, id)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

// ----- Handler: POST /trips/{trip_id}/location -----

func (handler *MarketplaceHTTPHandler) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	id, ok := handler.tripID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, id)

	var req updateLocationRequest
	if !handler.decodeBody(ctx, w, r, 64<<10, &req) {
		return
	}

	actor, err := handler.principal(r)
	if err != nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.UpdateLocation(ctxWithTimeout, actor, ports.UpdateLocationInput{
		TripID:         id,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		SpeedKMH:       req.SpeedKMH,
		HeadingDegrees: req.HeadingDegrees,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
