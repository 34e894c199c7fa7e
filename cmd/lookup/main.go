// Command lookup runs a single postcode, nearby-incident, or prediction query
// against the configured upstreams and prints the result as JSON.
//
// Usage:
//
//	go run ./cmd/lookup -postcode "SW1A 1AA" -radius 5
//	go run ./cmd/lookup -lat 51.5014 -lon -0.1419
//	go run ./cmd/lookup -postcode "M1 1AE" -month 2025-05
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/couchcryptid/crimewatch-service/internal/adapter/crimes"
	"github.com/couchcryptid/crimewatch-service/internal/adapter/postcodes"
	"github.com/couchcryptid/crimewatch-service/internal/adapter/prediction"
	"github.com/couchcryptid/crimewatch-service/internal/config"
	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
	"github.com/couchcryptid/crimewatch-service/internal/service"
	"github.com/joho/godotenv"
)

type result struct {
	Center     *domain.Coordinate       `json:"center,omitempty"`
	Incidents  []domain.Incident        `json:"incidents,omitempty"`
	Counts     map[string]int           `json:"category_counts,omitempty"`
	Prediction *domain.PredictionResult `json:"prediction,omitempty"`
}

func main() {
	postcode := flag.String("postcode", "", "UK postcode to resolve")
	lat := flag.Float64("lat", 0, "latitude (used when -postcode is empty)")
	lon := flag.Float64("lon", 0, "longitude (used when -postcode is empty)")
	radius := flag.Float64("radius", 0, "search radius in miles (0 uses the default)")
	month := flag.String("month", "", "YYYY-MM; when set, a prediction is requested instead of incidents")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*postcode, *lat, *lon, *radius, *month); err != nil {
		fmt.Fprintf(os.Stderr, "lookup: %v\n", err)
		os.Exit(1)
	}
}

func run(postcode string, lat, lon, radius float64, month string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)
	// No /metrics endpoint here, so nothing is registered.
	metrics := observability.NewMetricsForTesting()

	svc := service.New(
		postcodes.NewClient(cfg.PostcodesAPIURL, cfg.UpstreamTimeout, metrics, logger),
		crimes.NewClient(cfg.CrimeAPIURL, cfg.UpstreamTimeout, metrics, logger),
		prediction.NewClient(cfg.PredictionAPIURL, cfg.UpstreamTimeout, metrics, logger),
		nil, logger, metrics,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	center := domain.Coordinate{Latitude: lat, Longitude: lon}
	if postcode != "" {
		center, err = svc.ResolveCoordinates(ctx, postcode)
		if err != nil {
			return err
		}
	}

	out := result{Center: &center}
	if month != "" {
		p, err := svc.Predict(ctx, center, month)
		if err != nil {
			return err
		}
		out.Prediction = &p
	} else {
		var r *float64
		if radius != 0 {
			r = &radius
		}
		incidents, err := svc.NearbyIncidents(ctx, center, r)
		if err != nil {
			return err
		}
		out.Incidents = incidents
		out.Counts = domain.CategoryCounts(incidents)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
