package postcodes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func jsonHandler(t *testing.T, status int, body string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_ResolveCoordinates_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/postcodes/SW1A%201AA", r.URL.EscapedPath())

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"status":200,"result":{"postcode":"SW1A 1AA","latitude":51.501009,"longitude":-0.141588}}`))
	}))
	defer srv.Close()

	coord, err := testClient(srv.URL).ResolveCoordinates(context.Background(), "SW1A 1AA")
	require.NoError(t, err)

	assert.Equal(t, domain.Coordinate{Latitude: 51.501009, Longitude: -0.141588}, coord)
}

func TestClient_ResolveCoordinates_NotFound(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusNotFound, `{"status":404,"error":"Invalid postcode"}`))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveCoordinates(context.Background(), "ZZ99 9ZZ")

	require.Error(t, err)
	assert.Equal(t, domain.KindNoMatch, domain.KindOf(err))
	assert.Equal(t, "Invalid postcode", domain.MessageOf(err, ""))
}

func TestClient_ResolveCoordinates_NotFoundWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusNotFound, `not json`))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveCoordinates(context.Background(), "ZZ99 9ZZ")

	assert.Equal(t, domain.KindNoMatch, domain.KindOf(err))
	assert.Equal(t, domain.MsgCoordinatesFetchError, domain.MessageOf(err, ""))
}

func TestClient_ResolveCoordinates_NullResult(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, `{"status":200,"result":null}`))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveCoordinates(context.Background(), "SW1A 1AA")

	assert.Equal(t, domain.KindNoMatch, domain.KindOf(err))
	assert.Equal(t, domain.MsgCoordinatesFetchError, domain.MessageOf(err, ""))
}

func TestClient_ResolveCoordinates_NullCoordinates(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, `{"status":200,"result":{"postcode":"GIR 0AA","latitude":null,"longitude":null}}`))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveCoordinates(context.Background(), "GIR 0AA")

	assert.Equal(t, domain.KindNoMatch, domain.KindOf(err))
}

func TestClient_ResolveCoordinates_Rejected(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusBadRequest, `{"status":400,"error":"Invalid JSON query submitted"}`))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveCoordinates(context.Background(), "SW1A 1AA")

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.KindServiceRejection, de.Kind)
	assert.Equal(t, http.StatusBadRequest, de.Status)
	assert.Equal(t, "Invalid JSON query submitted", de.Message)
}

func TestClient_ResolveCoordinates_ServerErrorFallback(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusInternalServerError, ``))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveCoordinates(context.Background(), "SW1A 1AA")

	assert.Equal(t, domain.KindServiceRejection, domain.KindOf(err))
	assert.Equal(t, domain.MsgCoordinatesFetchError, domain.MessageOf(err, ""))
}

func TestClient_ResolveCoordinates_Malformed(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, `{"result":`))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveCoordinates(context.Background(), "SW1A 1AA")

	assert.Equal(t, domain.KindMalformedResponse, domain.KindOf(err))
	assert.Equal(t, domain.MsgCoordinatesServerError, domain.MessageOf(err, ""))
}

func TestClient_ResolveCoordinates_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	_, err := testClient(baseURL).ResolveCoordinates(context.Background(), "SW1A 1AA")

	assert.Equal(t, domain.KindNetworkFailure, domain.KindOf(err))
	assert.Equal(t, domain.MsgCoordinatesServerError, domain.MessageOf(err, ""))
}

func TestClient_ResolveCoordinates_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.ResolveCoordinates(context.Background(), "SW1A 1AA")
	assert.Equal(t, domain.KindNetworkFailure, domain.KindOf(err))
}

func TestClient_ResolveCoordinates_EmptyInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected for empty postcode")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveCoordinates(context.Background(), "   ")

	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
}

func TestClient_ResolveCoordinates_NoFormatCheck(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveCoordinates(context.Background(), "not/a postcode")

	assert.Equal(t, domain.KindNoMatch, domain.KindOf(err))
	assert.Equal(t, "/postcodes/not%2Fa%20postcode", gotPath)
}
