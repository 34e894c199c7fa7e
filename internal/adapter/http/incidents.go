package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/service"
	"github.com/go-chi/chi/v5"
)

// IncidentService is the lookup API the incident handler serves.
type IncidentService interface {
	ResolveCoordinates(ctx context.Context, postalCode string) (domain.Coordinate, error)
	NearbyIncidents(ctx context.Context, center domain.Coordinate, radiusMiles *float64) ([]domain.Incident, error)
	HomeIncidents(ctx context.Context, postalCode string, radiusMiles *float64) (service.HomeArea, error)
	MapIncidents(ctx context.Context, current domain.Coordinate, homePostcode string, radiusMiles *float64) (service.MapView, error)
	Predict(ctx context.Context, center domain.Coordinate, month string) (domain.PredictionResult, error)
}

// IncidentHandler serves incident, postcode and prediction routes.
type IncidentHandler struct {
	svc IncidentService
}

// NewIncidentHandler creates an IncidentHandler.
func NewIncidentHandler(svc IncidentService) *IncidentHandler {
	return &IncidentHandler{svc: svc}
}

// Register registers the incident routes with the chi router.
func (h *IncidentHandler) Register(r chi.Router) {
	r.Get("/incidents/nearby", h.handleNearby)
	r.Get("/incidents/home", h.handleHome)
	r.Get("/incidents/map", h.handleMap)
	r.Get("/postcodes/{postcode}", h.handlePostcode)
	r.Post("/predictions", h.handlePredict)
}

func (h *IncidentHandler) handleNearby(w http.ResponseWriter, r *http.Request) {
	center, err := queryCoordinate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	radius, err := queryFloat(r, "radius")
	if err != nil {
		writeError(w, err)
		return
	}

	incidents, err := h.svc.NearbyIncidents(r.Context(), center, radius)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, incidents, "")
}

func (h *IncidentHandler) handleHome(w http.ResponseWriter, r *http.Request) {
	radius, err := queryFloat(r, "radius")
	if err != nil {
		writeError(w, err)
		return
	}

	area, err := h.svc.HomeIncidents(r.Context(), r.URL.Query().Get("postcode"), radius)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, area, "")
}

func (h *IncidentHandler) handleMap(w http.ResponseWriter, r *http.Request) {
	current, err := queryCoordinate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	radius, err := queryFloat(r, "radius")
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.svc.MapIncidents(r.Context(), current, strings.TrimSpace(r.URL.Query().Get("postcode")), radius)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, view, "")
}

type postcodeResponse struct {
	PostalCode string  `json:"postal_code"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

func (h *IncidentHandler) handlePostcode(w http.ResponseWriter, r *http.Request) {
	postcode, err := pathParam(r, "postcode")
	if err != nil {
		writeError(w, domain.Invalid("invalid postcode encoding"))
		return
	}

	coord, err := h.svc.ResolveCoordinates(r.Context(), postcode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, postcodeResponse{PostalCode: postcode, Latitude: coord.Latitude, Longitude: coord.Longitude}, "")
}

type predictRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Month     string   `json:"month"`
}

func (h *IncidentHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, domain.Invalid("latitude and longitude are required"))
		return
	}

	result, err := h.svc.Predict(r.Context(), domain.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}, req.Month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result, "")
}
