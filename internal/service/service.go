package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// publishTimeout bounds a digest write so a slow broker cannot hold a request.
const publishTimeout = 5 * time.Second

// Operation names used for session tracking.
const (
	opResolve = "resolve"
	opNearby  = "nearby"
	opHome    = "home"
	opMap     = "map"
	opPredict = "predict"
)

// HomeArea is the capped incident view around a resolved postcode.
type HomeArea struct {
	PostalCode  string            `json:"postal_code"`
	Center      domain.Coordinate `json:"center"`
	RadiusMiles float64           `json:"radius_miles"`
	Incidents   []domain.Incident `json:"incidents"`
}

// MapView merges incidents around the caller's position and home postcode.
type MapView struct {
	Current     domain.Coordinate  `json:"current"`
	Home        *domain.Coordinate `json:"home,omitempty"`
	RadiusMiles float64            `json:"radius_miles"`
	Incidents   []domain.Incident  `json:"incidents"`
}

// Service implements the incident, postcode and prediction lookups.
type Service struct {
	resolver  domain.LocationResolver
	source    domain.IncidentSource
	predictor domain.Predictor
	publisher domain.DigestPublisher // nil disables digests
	logger    *slog.Logger
	metrics   *observability.Metrics
	sessions  *sessions
	ready     atomic.Bool
}

// New creates a Service. Pass a nil publisher to disable digest publishing.
func New(resolver domain.LocationResolver, source domain.IncidentSource, predictor domain.Predictor, publisher domain.DigestPublisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		resolver:  resolver,
		source:    source,
		predictor: predictor,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		sessions:  newSessions(),
	}
}

// CheckReadiness returns nil while the service is accepting traffic.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("service is not accepting traffic")
	}
	return nil
}

// SetReady flips the readiness state reported to probes.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
	if ready {
		s.metrics.ServiceReady.Set(1)
	} else {
		s.metrics.ServiceReady.Set(0)
	}
}

// ResolveCoordinates converts a postal code to coordinates.
func (s *Service) ResolveCoordinates(ctx context.Context, postalCode string) (domain.Coordinate, error) {
	return track(ctx, s, opResolve, func(ctx context.Context) (domain.Coordinate, error) {
		if strings.TrimSpace(postalCode) == "" {
			return domain.Coordinate{}, domain.Invalid("Postal code is required")
		}
		return s.resolver.ResolveCoordinates(ctx, postalCode)
	})
}

// NearbyIncidents returns incidents within radiusMiles of center, capped to
// domain.MaxPerCategory per category. A nil radius means the default.
func (s *Service) NearbyIncidents(ctx context.Context, center domain.Coordinate, radiusMiles *float64) ([]domain.Incident, error) {
	return track(ctx, s, opNearby, func(ctx context.Context) ([]domain.Incident, error) {
		radius, err := domain.NormalizeRadius(radiusMiles)
		if err != nil {
			return nil, err
		}
		return s.nearby(ctx, center, radius)
	})
}

// HomeIncidents resolves postalCode and returns the capped incidents around
// it. A digest of the result is published when a publisher is configured;
// publish failures are logged and do not fail the call.
func (s *Service) HomeIncidents(ctx context.Context, postalCode string, radiusMiles *float64) (HomeArea, error) {
	return track(ctx, s, opHome, func(ctx context.Context) (HomeArea, error) {
		radius, err := domain.NormalizeRadius(radiusMiles)
		if err != nil {
			return HomeArea{}, err
		}
		area, err := s.home(ctx, postalCode, radius)
		if err != nil {
			return HomeArea{}, err
		}
		s.publishDigest(ctx, area)
		return area, nil
	})
}

// MapIncidents fetches capped incidents around current and, when homePostcode
// is set, around the home postcode concurrently. The lists are merged with
// duplicates removed by id, current-location incidents first.
func (s *Service) MapIncidents(ctx context.Context, current domain.Coordinate, homePostcode string, radiusMiles *float64) (MapView, error) {
	return track(ctx, s, opMap, func(ctx context.Context) (MapView, error) {
		radius, err := domain.NormalizeRadius(radiusMiles)
		if err != nil {
			return MapView{}, err
		}
		if err := current.Validate(); err != nil {
			return MapView{}, err
		}

		var (
			near []domain.Incident
			home HomeArea
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			near, err = s.nearby(gctx, current, radius)
			return err
		})
		if homePostcode != "" {
			g.Go(func() error {
				var err error
				home, err = s.home(gctx, homePostcode, radius)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return MapView{}, err
		}

		view := MapView{
			Current:     current,
			RadiusMiles: radius,
			Incidents:   domain.DedupeByID(near, home.Incidents),
		}
		if homePostcode != "" {
			center := home.Center
			view.Home = &center
		}
		return view, nil
	})
}

// Predict returns the model's crime-category prediction for center in month.
// The month is forwarded unvalidated; only an empty month is rejected.
func (s *Service) Predict(ctx context.Context, center domain.Coordinate, month string) (domain.PredictionResult, error) {
	return track(ctx, s, opPredict, func(ctx context.Context) (domain.PredictionResult, error) {
		if err := center.Validate(); err != nil {
			return domain.PredictionResult{}, err
		}
		if strings.TrimSpace(month) == "" {
			return domain.PredictionResult{}, domain.Invalid("month is required")
		}
		result, err := s.predictor.Predict(ctx, center, month)
		if err != nil {
			return domain.PredictionResult{}, err
		}
		return result.Normalize(), nil
	})
}

func (s *Service) nearby(ctx context.Context, center domain.Coordinate, radius float64) ([]domain.Incident, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	raw, err := s.source.NearbyIncidents(ctx, center, radius)
	if err != nil {
		return nil, err
	}
	capped := domain.CapPerCategory(raw)

	s.metrics.IncidentsReceived.Add(float64(len(raw)))
	s.metrics.IncidentsReturned.Add(float64(len(capped)))
	s.logger.Debug("nearby incidents",
		"latitude", center.Latitude,
		"longitude", center.Longitude,
		"radius_miles", radius,
		"received", len(raw),
		"returned", len(capped),
	)
	return capped, nil
}

func (s *Service) home(ctx context.Context, postalCode string, radius float64) (HomeArea, error) {
	if strings.TrimSpace(postalCode) == "" {
		return HomeArea{}, domain.Invalid("Postal code is required")
	}
	center, err := s.resolver.ResolveCoordinates(ctx, postalCode)
	if err != nil {
		return HomeArea{}, err
	}
	incidents, err := s.nearby(ctx, center, radius)
	if err != nil {
		return HomeArea{}, err
	}
	return HomeArea{PostalCode: postalCode, Center: center, RadiusMiles: radius, Incidents: incidents}, nil
}

func (s *Service) publishDigest(ctx context.Context, area HomeArea) {
	if s.publisher == nil {
		return
	}
	digest := domain.NewDigest(area.PostalCode, area.Center, area.RadiusMiles, area.Incidents)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishDigest(ctx, digest); err != nil {
		s.metrics.DigestPublishFailure.Inc()
		s.logger.Warn("digest publish failed", "digest_id", digest.ID, "postal_code", digest.PostalCode, "error", err)
		return
	}
	s.metrics.DigestsPublished.Inc()
}

// track runs fn under the caller's session so a newer call of the same
// operation cancels it. A superseded call returns a superseded error in
// place of its result.
func track[T any](ctx context.Context, s *Service, op string, fn func(context.Context) (T, error)) (T, error) {
	key := ""
	if id := SessionFrom(ctx); id != "" {
		key = id + "/" + op
	}

	ctx, finish := s.sessions.begin(ctx, key)
	result, err := fn(ctx)
	if finish() {
		s.metrics.SupersededRequests.Inc()
		s.logger.Debug("request superseded", "operation", op, "session", SessionFrom(ctx))
		var zero T
		return zero, domain.Superseded(context.Cause(ctx))
	}
	return result, err
}
