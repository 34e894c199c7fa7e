package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
	"github.com/couchcryptid/crimewatch-service/internal/service"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearbyIncidents_CapsPerCategory(t *testing.T) {
	f := newFixture()
	f.source.incidents = []domain.Incident{
		incident("b1", "burglary"),
		incident("b2", "burglary"),
		incident("b3", "burglary"),
		incident("b4", "burglary"),
		incident("b5", "burglary"),
		incident("r1", "robbery"),
	}

	got, err := f.svc.NearbyIncidents(context.Background(), westminster, radius(1))
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"b1", "b2", "r1"}, ids(got)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestNearbyIncidents_SameUpstreamSameResult(t *testing.T) {
	f := newFixture()
	f.source.incidents = []domain.Incident{
		incident("t1", "theft"),
		incident("b1", "burglary"),
		incident("t2", " theft "),
		incident("t3", "theft"),
		incident("b2", "burglary"),
		incident("d1", "drugs"),
		incident("b3", "burglary"),
	}

	first, err := f.svc.NearbyIncidents(context.Background(), westminster, radius(5))
	require.NoError(t, err)
	second, err := f.svc.NearbyIncidents(context.Background(), westminster, radius(5))
	require.NoError(t, err)

	assert.Equal(t, 2, f.source.callCount())
	assert.Equal(t, first, second)
	if diff := cmp.Diff([]string{"t1", "t2", "b1", "b2", "d1"}, ids(second)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestNearbyIncidents_DefaultRadius(t *testing.T) {
	f := newFixture()

	_, err := f.svc.NearbyIncidents(context.Background(), westminster, nil)
	require.NoError(t, err)

	require.Equal(t, 1, f.source.callCount())
	assert.Equal(t, domain.DefaultRadiusMiles, f.source.calls[0].radius)
	assert.Equal(t, westminster, f.source.calls[0].center)
}

func TestNearbyIncidents_EmptyUpstream(t *testing.T) {
	f := newFixture()
	f.source.incidents = []domain.Incident{}

	got, err := f.svc.NearbyIncidents(context.Background(), westminster, nil)
	require.NoError(t, err)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNearbyIncidents_InvalidInput(t *testing.T) {
	f := newFixture()

	for _, r := range []float64{0, -1, 25, math.NaN()} {
		_, err := f.svc.NearbyIncidents(context.Background(), westminster, radius(r))
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err), "radius %v", r)
	}

	_, err := f.svc.NearbyIncidents(context.Background(), domain.Coordinate{Latitude: 91}, nil)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	assert.Zero(t, f.source.callCount(), "invalid input must not reach upstream")
}

func TestNearbyIncidents_UpstreamError(t *testing.T) {
	f := newFixture()
	f.source.err = domain.NetworkFailure(domain.MsgServerError, errors.New("dial tcp: lookup example.invalid: no such host"))

	got, err := f.svc.NearbyIncidents(context.Background(), westminster, nil)

	assert.Nil(t, got)
	assert.Equal(t, domain.KindNetworkFailure, domain.KindOf(err))
	assert.Equal(t, domain.MsgServerError, domain.MessageOf(err, ""))
}

func TestResolveCoordinates(t *testing.T) {
	f := newFixture()

	c, err := f.svc.ResolveCoordinates(context.Background(), "SW1A 1AA")
	require.NoError(t, err)
	assert.Equal(t, westminster, c)

	_, err = f.svc.ResolveCoordinates(context.Background(), "ZZ99 9ZZ")
	assert.Equal(t, domain.KindNoMatch, domain.KindOf(err))
	assert.NotEmpty(t, domain.MessageOf(err, ""))

	_, err = f.svc.ResolveCoordinates(context.Background(), "")
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	assert.Equal(t, []string{"SW1A 1AA", "ZZ99 9ZZ"}, f.resolver.calls)
}

func TestPredict(t *testing.T) {
	f := newFixture()
	f.predictor.result = domain.PredictionResult{
		Probabilities: map[string]float64{"theft": 0.5, "drugs": 0.3, "robbery": 0.15, "arson": 0.05},
		ModelVersion:  "v1",
	}

	got, err := f.svc.Predict(context.Background(), westminster, "2025-05")
	require.NoError(t, err)

	assert.Equal(t, []string{"theft", "drugs", "robbery"}, got.TopCategories)
	assert.Equal(t, "theft", got.PredictedCategory)
	assert.Equal(t, "2025-05", f.predictor.gotMonth)
	assert.Equal(t, westminster, f.predictor.gotCenter)
}

func TestPredict_MonthPassedThrough(t *testing.T) {
	f := newFixture()
	f.predictor.err = domain.Rejection(400, "Invalid month", domain.MsgSomethingWentWrong)

	_, err := f.svc.Predict(context.Background(), westminster, "2025-13")

	assert.Equal(t, "2025-13", f.predictor.gotMonth)
	assert.Equal(t, domain.KindServiceRejection, domain.KindOf(err))
	assert.Equal(t, "Invalid month", domain.MessageOf(err, ""))
}

func TestPredict_EmptyMonth(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Predict(context.Background(), westminster, " ")

	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	assert.Zero(t, f.predictor.calls)
}

func TestHomeIncidents_PublishesDigest(t *testing.T) {
	f := newFixture()
	f.source.incidents = []domain.Incident{
		incident("1", "theft"), incident("2", "theft"), incident("3", "theft"), incident("4", "drugs"),
	}

	area, err := f.svc.HomeIncidents(context.Background(), "SW1A 1AA", radius(5))
	require.NoError(t, err)

	assert.Equal(t, "SW1A 1AA", area.PostalCode)
	assert.Equal(t, westminster, area.Center)
	assert.Equal(t, 5.0, area.RadiusMiles)
	assert.Equal(t, []string{"1", "2", "4"}, ids(area.Incidents))

	require.Len(t, f.publisher.digests, 1)
	d := f.publisher.digests[0]
	assert.Equal(t, "SW1A 1AA", d.PostalCode)
	assert.Equal(t, map[string]int{"theft": 2, "drugs": 1}, d.CategoryCounts)
	assert.NotEmpty(t, d.ID)
}

func TestHomeIncidents_PublishFailureIgnored(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker down")

	area, err := f.svc.HomeIncidents(context.Background(), "SW1A 1AA", nil)

	require.NoError(t, err)
	assert.Equal(t, westminster, area.Center)
}

func TestHomeIncidents_NilPublisher(t *testing.T) {
	f := newFixture()
	svc := service.New(f.resolver, f.source, f.predictor, nil, discardLogger(), f.metrics)

	_, err := svc.HomeIncidents(context.Background(), "SW1A 1AA", nil)

	require.NoError(t, err)
}

func TestHomeIncidents_NoMatch(t *testing.T) {
	f := newFixture()

	_, err := f.svc.HomeIncidents(context.Background(), "ZZ99 9ZZ", nil)

	assert.Equal(t, domain.KindNoMatch, domain.KindOf(err))
	assert.Zero(t, f.source.callCount())
	assert.Empty(t, f.publisher.digests)
}

func TestMapIncidents_MergesCurrentFirst(t *testing.T) {
	f := newFixture()
	f.source.byCenter = map[domain.Coordinate][]domain.Incident{
		manchester:  {incident("m1", "theft"), incident("shared", "drugs")},
		westminster: {incident("shared", "drugs"), incident("w1", "robbery")},
	}

	view, err := f.svc.MapIncidents(context.Background(), manchester, "SW1A 1AA", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"m1", "shared", "w1"}, ids(view.Incidents))
	assert.Equal(t, manchester, view.Current)
	require.NotNil(t, view.Home)
	assert.Equal(t, westminster, *view.Home)
	assert.Equal(t, 2, f.source.callCount())
	assert.Empty(t, f.publisher.digests, "map view does not publish digests")
}

func TestMapIncidents_WithoutHome(t *testing.T) {
	f := newFixture()
	f.source.incidents = []domain.Incident{incident("1", "theft")}

	view, err := f.svc.MapIncidents(context.Background(), manchester, "", radius(10))
	require.NoError(t, err)

	assert.Nil(t, view.Home)
	assert.Equal(t, 10.0, view.RadiusMiles)
	assert.Equal(t, []string{"1"}, ids(view.Incidents))
	assert.Empty(t, f.resolver.calls)
}

func TestMapIncidents_HomeFailureCancelsCurrent(t *testing.T) {
	f := newFixture()
	f.source.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.MapIncidents(context.Background(), manchester, "ZZ99 9ZZ", nil)
		done <- err
	}()

	select {
	case err := <-done:
		assert.Equal(t, domain.KindNoMatch, domain.KindOf(err))
	case <-time.After(2 * time.Second):
		t.Fatal("MapIncidents did not return after home lookup failed")
	}
}

func TestSupersede_NewerCallWins(t *testing.T) {
	f := newFixture()
	f.source.block = make(chan struct{})
	ctx := service.WithSession(context.Background(), "device-1")

	first := make(chan error, 1)
	go func() {
		_, err := f.svc.NearbyIncidents(ctx, westminster, nil)
		first <- err
	}()
	require.Eventually(t, func() bool { return f.source.callCount() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	go func() {
		_, err := f.svc.NearbyIncidents(ctx, manchester, nil)
		second <- err
	}()

	select {
	case err := <-first:
		assert.Equal(t, domain.KindSuperseded, domain.KindOf(err))
	case <-time.After(2 * time.Second):
		t.Fatal("first call was not cancelled")
	}

	close(f.source.block)
	require.NoError(t, <-second)
}

func TestSupersede_DifferentSessionsIndependent(t *testing.T) {
	f := newFixture()

	_, err := f.svc.NearbyIncidents(service.WithSession(context.Background(), "a"), westminster, nil)
	require.NoError(t, err)
	_, err = f.svc.NearbyIncidents(service.WithSession(context.Background(), "b"), westminster, nil)
	require.NoError(t, err)
}

func TestSupersede_DifferentOperationsIndependent(t *testing.T) {
	f := newFixture()
	f.source.block = make(chan struct{})
	ctx := service.WithSession(context.Background(), "device-1")

	nearby := make(chan error, 1)
	go func() {
		_, err := f.svc.NearbyIncidents(ctx, westminster, nil)
		nearby <- err
	}()
	require.Eventually(t, func() bool { return f.source.callCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err := f.svc.Predict(ctx, westminster, "2025-05")
	require.NoError(t, err)

	close(f.source.block)
	assert.NoError(t, <-nearby)
}

func TestReadiness(t *testing.T) {
	svc := service.New(nil, nil, nil, nil, discardLogger(), observability.NewMetricsForTesting())

	assert.Error(t, svc.CheckReadiness(context.Background()))

	svc.SetReady(true)
	assert.NoError(t, svc.CheckReadiness(context.Background()))

	svc.SetReady(false)
	assert.Error(t, svc.CheckReadiness(context.Background()))
}

func TestSessionFrom(t *testing.T) {
	assert.Empty(t, service.SessionFrom(context.Background()))
	assert.Empty(t, service.SessionFrom(service.WithSession(context.Background(), "")))
	assert.Equal(t, "abc", service.SessionFrom(service.WithSession(context.Background(), "abc")))
}
