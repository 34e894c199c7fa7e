package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// envelope is the response shape every API route returns.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), envelope{Message: domain.MessageOf(err, domain.MsgSomethingWentWrong)})
}

// statusFor maps a domain error kind to an HTTP status. Upstream client
// errors pass through; upstream server errors become 502.
func statusFor(err error) int {
	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNoMatch:
		return http.StatusNotFound
	case domain.KindSuperseded:
		return http.StatusConflict
	case domain.KindServiceRejection:
		if de.Status >= 400 && de.Status < 500 {
			return de.Status
		}
		return http.StatusBadGateway
	case domain.KindNetworkFailure, domain.KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Invalid("invalid request body")
	}
	return nil
}

// queryFloat parses an optional numeric query parameter.
func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.Invalid(fmt.Sprintf("%s must be a number", name))
	}
	return &f, nil
}

// queryCoordinate parses the required latitude and longitude parameters.
func queryCoordinate(r *http.Request) (domain.Coordinate, error) {
	lat, err := queryFloat(r, "latitude")
	if err != nil {
		return domain.Coordinate{}, err
	}
	lon, err := queryFloat(r, "longitude")
	if err != nil {
		return domain.Coordinate{}, err
	}
	if lat == nil || lon == nil {
		return domain.Coordinate{}, domain.Invalid("latitude and longitude are required")
	}
	return domain.Coordinate{Latitude: *lat, Longitude: *lon}, nil
}

// pathParam returns the decoded value of a chi URL parameter. chi routes on
// r.URL.RawPath when it is set, so only then is the value still escaped.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}
