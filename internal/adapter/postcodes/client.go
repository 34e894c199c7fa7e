package postcodes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/crimewatch-service/internal/adapter/upstream"
	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
)

// Client implements domain.LocationResolver using the postcodes.io API.
type Client struct {
	api     *upstream.Client
	baseURL string
}

// NewClient creates a postcodes.io client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		api:     upstream.New(observability.UpstreamPostcodes, timeout, metrics, logger),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ResolveCoordinates looks up the centroid of a postal code. The input is
// not format-checked; the upstream decides what it recognises.
func (c *Client) ResolveCoordinates(ctx context.Context, postalCode string) (domain.Coordinate, error) {
	if strings.TrimSpace(postalCode) == "" {
		return domain.Coordinate{}, domain.Invalid("Postal code is required")
	}

	u := fmt.Sprintf("%s/postcodes/%s", c.baseURL, url.PathEscape(postalCode))

	var coord domain.Coordinate
	err := c.api.Do(ctx, http.MethodGet, u, nil, domain.MsgCoordinatesServerError, func(resp upstream.Response) error {
		var err error
		coord, err = parseLookup(resp)
		return err
	})
	return coord, err
}

func parseLookup(resp upstream.Response) (domain.Coordinate, error) {
	if resp.Status == http.StatusNotFound {
		return domain.Coordinate{}, domain.NoMatch(resp.Status, upstream.DecodeMessage(resp.Body, "error"), domain.MsgCoordinatesFetchError)
	}
	if !resp.OK() {
		return domain.Coordinate{}, domain.Rejection(resp.Status, upstream.DecodeMessage(resp.Body, "error"), domain.MsgCoordinatesFetchError)
	}

	var body lookupResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return domain.Coordinate{}, domain.Malformed(domain.MsgCoordinatesServerError, resp.Status, fmt.Errorf("decode postcode response: %w", err))
	}
	if body.Result == nil || body.Result.Latitude == nil || body.Result.Longitude == nil {
		return domain.Coordinate{}, domain.NoMatch(resp.Status, body.Error, domain.MsgCoordinatesFetchError)
	}

	return domain.Coordinate{Latitude: *body.Result.Latitude, Longitude: *body.Result.Longitude}, nil
}

// postcodes.io response types. Terminated or non-geographic postcodes come
// back with null coordinates.

type lookupResponse struct {
	Status int           `json:"status"`
	Error  string        `json:"error"`
	Result *lookupResult `json:"result"`
}

type lookupResult struct {
	Postcode  string   `json:"postcode"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}
