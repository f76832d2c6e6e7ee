package forecast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattcast/wattcast/pkg/types"
)

func testSeries() types.Series {
	s := make(types.Series, types.SeriesLength)
	for i := range s {
		s[i] = float64(i * 10)
	}
	return s
}

func TestClientPredict(t *testing.T) {
	t.Run("Single Step Endpoint", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/predict", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Contains(t, r.Header.Get("User-Agent"), "WattCast/")

			var body struct {
				Values []float64 `json:"values"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []float64(testSeries()), body.Values)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"prediction": 12.5}`))
		}))
		defer ts.Close()

		c := NewClient(ts.URL+"/", nil, time.Second)
		require.NoError(t, c.Validate())
		f, err := c.Predict(context.Background(), testSeries(), 0)
		require.NoError(t, err)
		assert.Equal(t, []float64{12.5}, f.Values)
		assert.Nil(t, f.Hint)
	})

	t.Run("Horizon Endpoint", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/predict/6", r.URL.Path)
			_, _ = w.Write([]byte(`{"forecast": [1, 2, 3, 4, 5, 6], "arrow": "up", "curvature": "steady"}`))
		}))
		defer ts.Close()

		c := NewClient(ts.URL, ts.Client(), 0)
		f, err := c.Predict(context.Background(), testSeries(), 6)
		require.NoError(t, err)
		assert.Len(t, f.Values, 6)
		require.NotNil(t, f.Hint)
		assert.Equal(t, types.TrendDirectionUp, f.Hint.Direction)
		assert.Equal(t, types.CurvatureSteady, f.Hint.Curvature)
	})

	t.Run("Invalid Horizon", func(t *testing.T) {
		requests := 0
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer ts.Close()

		c := NewClient(ts.URL, ts.Client(), 0)
		_, err := c.Predict(context.Background(), testSeries(), 5)
		assert.ErrorIs(t, err, ErrInvalidHorizon)
		assert.Equal(t, 0, requests)
	})

	t.Run("Non Success Status", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		c := NewClient(ts.URL, ts.Client(), 0)
		_, err := c.Predict(context.Background(), testSeries(), 0)
		assert.ErrorIs(t, err, ErrNetwork)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("Unreachable", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := ts.URL
		ts.Close()

		c := NewClient(url, nil, time.Second)
		_, err := c.Predict(context.Background(), testSeries(), 0)
		assert.ErrorIs(t, err, ErrNetwork)
	})

	t.Run("Malformed Response", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		}))
		defer ts.Close()

		c := NewClient(ts.URL, ts.Client(), 0)
		f, err := c.Predict(context.Background(), testSeries(), 0)
		assert.ErrorIs(t, err, ErrMalformedResponse)
		assert.True(t, f.Empty())
	})

	t.Run("Context Canceled", func(t *testing.T) {
		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer ts.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		c := NewClient(ts.URL, ts.Client(), 0)
		_, err := c.Predict(ctx, testSeries(), 0)
		assert.ErrorIs(t, err, ErrNetwork)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClientValidate(t *testing.T) {
	assert.Error(t, NewClient("", nil, 0).Validate())
	assert.Error(t, NewClient("ftp://example.com", nil, 0).Validate())
	assert.Error(t, NewClient("://bad", nil, 0).Validate())
	assert.NoError(t, NewClient("https://energy-forecast.example.com", nil, 0).Validate())
}

func TestValidHorizon(t *testing.T) {
	for _, h := range []int{0, 1, 6, 12, 24} {
		assert.True(t, ValidHorizon(h), "horizon %d", h)
	}
	for _, h := range []int{-1, 2, 3, 48} {
		assert.False(t, ValidHorizon(h), "horizon %d", h)
	}
}
