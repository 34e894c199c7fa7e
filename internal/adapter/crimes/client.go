package crimes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crimewatch-service/internal/adapter/upstream"
	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
)

const nearbyPath = "/api/v1/crimes/nearby"

// Client implements domain.IncidentSource against the incident-data API.
type Client struct {
	api     *upstream.Client
	baseURL string
}

// NewClient creates an incident-data client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		api:     upstream.New(observability.UpstreamCrimes, timeout, metrics, logger),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NearbyIncidents returns every incident the API reports within radiusMiles
// of center, in server order. Capping is left to the caller.
func (c *Client) NearbyIncidents(ctx context.Context, center domain.Coordinate, radiusMiles float64) ([]domain.Incident, error) {
	params := url.Values{
		"latitude":  {formatFloat(center.Latitude)},
		"longitude": {formatFloat(center.Longitude)},
		"radius":    {formatFloat(radiusMiles)},
	}
	u := c.baseURL + nearbyPath + "?" + params.Encode()

	var incidents []domain.Incident
	err := c.api.Do(ctx, http.MethodGet, u, nil, domain.MsgServerError, func(resp upstream.Response) error {
		if !resp.OK() {
			return domain.Rejection(resp.Status, upstream.DecodeMessage(resp.Body, "message"), domain.MsgSomethingWentWrong)
		}
		if err := json.Unmarshal(resp.Body, &incidents); err != nil {
			return domain.Malformed(domain.MsgServerError, resp.Status, fmt.Errorf("decode nearby incidents: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if incidents == nil {
		incidents = []domain.Incident{}
	}
	return incidents, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
