package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
	"github.com/couchcryptid/crimewatch-service/internal/service"
)

// --- mocks ---

type mockResolver struct {
	mu     sync.Mutex
	coords map[string]domain.Coordinate
	err    error
	calls  []string
}

func (m *mockResolver) ResolveCoordinates(_ context.Context, postalCode string) (domain.Coordinate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, postalCode)
	if m.err != nil {
		return domain.Coordinate{}, m.err
	}
	c, ok := m.coords[postalCode]
	if !ok {
		return domain.Coordinate{}, domain.NoMatch(404, "Invalid postcode", domain.MsgCoordinatesFetchError)
	}
	return c, nil
}

type sourceCall struct {
	center domain.Coordinate
	radius float64
}

type mockSource struct {
	mu        sync.Mutex
	byCenter  map[domain.Coordinate][]domain.Incident
	incidents []domain.Incident
	err       error
	block     chan struct{} // when set, calls wait on it or ctx
	calls     []sourceCall
}

func (m *mockSource) NearbyIncidents(ctx context.Context, center domain.Coordinate, radius float64) ([]domain.Incident, error) {
	m.mu.Lock()
	m.calls = append(m.calls, sourceCall{center: center, radius: radius})
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, domain.NetworkFailure(domain.MsgServerError, ctx.Err())
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if list, ok := m.byCenter[center]; ok {
		return list, nil
	}
	return m.incidents, nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockPredictor struct {
	result    domain.PredictionResult
	err       error
	gotMonth  string
	gotCenter domain.Coordinate
	calls     int
}

func (m *mockPredictor) Predict(_ context.Context, center domain.Coordinate, month string) (domain.PredictionResult, error) {
	m.calls++
	m.gotCenter = center
	m.gotMonth = month
	return m.result, m.err
}

type mockPublisher struct {
	mu      sync.Mutex
	digests []domain.Digest
	err     error
}

func (m *mockPublisher) PublishDigest(ctx context.Context, d domain.Digest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if m.err != nil {
		return m.err
	}
	m.digests = append(m.digests, d)
	return nil
}

type mockStore struct {
	sentOTP    string
	verified   [2]string
	user       domain.User
	created    []domain.User
	patches    map[string]domain.UserPatch
	deleted    []string
	err        error
	message    string
	storeCalls int
}

func (m *mockStore) SendOTP(_ context.Context, email string) (string, error) {
	m.storeCalls++
	m.sentOTP = email
	return m.message, m.err
}

func (m *mockStore) VerifyOTP(_ context.Context, email, otp string) (string, error) {
	m.storeCalls++
	m.verified = [2]string{email, otp}
	return m.message, m.err
}

func (m *mockStore) GetUser(_ context.Context, _ string) (domain.User, error) {
	m.storeCalls++
	return m.user, m.err
}

func (m *mockStore) CreateUser(_ context.Context, u domain.User) error {
	m.storeCalls++
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, u)
	return nil
}

func (m *mockStore) UpdateUser(_ context.Context, email string, p domain.UserPatch) (string, error) {
	m.storeCalls++
	if m.err != nil {
		return "", m.err
	}
	if m.patches == nil {
		m.patches = make(map[string]domain.UserPatch)
	}
	m.patches[email] = p
	return domain.MsgUserUpdateSuccess, nil
}

func (m *mockStore) DeleteUser(_ context.Context, email string) (string, error) {
	m.storeCalls++
	if m.err != nil {
		return "", m.err
	}
	m.deleted = append(m.deleted, email)
	return domain.MsgUserDeleteSuccess, nil
}

// --- helpers ---

var (
	westminster = domain.Coordinate{Latitude: 51.5014, Longitude: -0.1419}
	manchester  = domain.Coordinate{Latitude: 53.4808, Longitude: -2.2426}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func incident(id, category string) domain.Incident {
	return domain.Incident{ID: domain.FlexString(id), Category: category, Month: "2025-05"}
}

func ids(list []domain.Incident) []string {
	out := make([]string, 0, len(list))
	for _, inc := range list {
		out = append(out, inc.ID.String())
	}
	return out
}

func radius(f float64) *float64 { return &f }

type fixture struct {
	resolver  *mockResolver
	source    *mockSource
	predictor *mockPredictor
	publisher *mockPublisher
	metrics   *observability.Metrics
	svc       *service.Service
}

func newFixture() *fixture {
	f := &fixture{
		resolver:  &mockResolver{coords: map[string]domain.Coordinate{"SW1A 1AA": westminster, "M1 1AE": manchester}},
		source:    &mockSource{},
		predictor: &mockPredictor{},
		publisher: &mockPublisher{},
		metrics:   observability.NewMetricsForTesting(),
	}
	f.svc = service.New(f.resolver, f.source, f.predictor, f.publisher, discardLogger(), f.metrics)
	return f
}
