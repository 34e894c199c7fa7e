package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/crimewatch-service/internal/adapter/upstream"
	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
)

// Client implements domain.Predictor against the crime prediction model service.
type Client struct {
	api     *upstream.Client
	baseURL string
}

// NewClient creates a prediction client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		api:     upstream.New(observability.UpstreamPrediction, timeout, metrics, logger),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type predictRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Month     string  `json:"month"`
}

// Predict asks the model for the likely crime categories at center in month.
// The month is forwarded as given.
func (c *Client) Predict(ctx context.Context, center domain.Coordinate, month string) (domain.PredictionResult, error) {
	payload := predictRequest{Latitude: center.Latitude, Longitude: center.Longitude, Month: month}

	var result domain.PredictionResult
	err := c.api.Do(ctx, http.MethodPost, c.baseURL+"/predict", payload, domain.MsgServerError, func(resp upstream.Response) error {
		if !resp.OK() {
			return domain.Rejection(resp.Status, upstream.DecodeMessage(resp.Body, "error"), domain.MsgSomethingWentWrong)
		}
		if err := json.Unmarshal(resp.Body, &result); err != nil {
			return domain.Malformed(domain.MsgServerError, resp.Status, fmt.Errorf("decode prediction: %w", err))
		}
		return nil
	})
	if err != nil {
		return domain.PredictionResult{}, err
	}
	return result.Normalize(), nil
}
