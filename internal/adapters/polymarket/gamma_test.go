package polymarket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaldesr/polyedge/internal/adapters/polymarket"
)

func newTestClient(gammaSrv *httptest.Server) *polymarket.Client {
	gammaURL := ""
	if gammaSrv != nil {
		gammaURL = gammaSrv.URL
	}
	return polymarket.NewClient("", gammaURL, 0)
}

func TestFetchActiveMarkets_Success(t *testing.T) {
	// Gamma mezcla números y strings numéricos en el mismo payload
	fixture := `[
		{
			"id": "501234",
			"conditionId": "0xbtc",
			"question": "Will BTC be above $70k in 30 days?",
			"category": "Crypto",
			"tokens": [
				{"token_id": "tid_yes", "outcome": "Yes", "price": 0.55},
				{"token_id": "tid_no",  "outcome": "No",  "price": "0.47"}
			],
			"volume24hr": "150000.5",
			"volume": 2500000,
			"liquidity": 50000,
			"endDate": "2025-03-31T12:00:00Z",
			"active": true,
			"closed": false
		},
		{
			"id": "501235",
			"conditionId": "0xcpi",
			"question": "Will CPI come in above 3.5%?",
			"category": "Economics",
			"tokens": [
				{"token_id": "tid_yes2", "outcome": "Yes", "price": 0.41},
				{"token_id": "tid_no2",  "outcome": "No",  "price": 0.60}
			],
			"volume24hr": 80000,
			"volume": 900000,
			"liquidity": 30000,
			"endDate": "2025-03-12",
			"active": true,
			"closed": false
		}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("active"))
		assert.Equal(t, "false", q.Get("closed"))
		assert.Equal(t, "volume24hr", q.Get("order"))
		assert.Equal(t, "false", q.Get("ascending"))
		assert.Equal(t, "50", q.Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	markets, err := client.FetchActiveMarkets(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, markets, 2)

	m := markets[0]
	assert.Equal(t, "0xbtc", m.ConditionID)
	assert.Equal(t, "Will BTC be above $70k in 30 days?", m.Question)
	assert.Equal(t, "Crypto", m.Category)
	assert.InDelta(t, 0.55, m.YesPrice, 0.0001)
	assert.InDelta(t, 0.47, m.NoPrice, 0.0001)
	assert.Equal(t, "tid_yes", m.YesTokenID)
	assert.Equal(t, "tid_no", m.NoTokenID)
	assert.InDelta(t, 150000.5, m.Volume24h, 0.001)
	assert.InDelta(t, 2500000, m.TotalVolume, 0.001)
	assert.InDelta(t, 50000, m.Liquidity, 0.001)
	assert.Equal(t, time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC), m.EndDate)
	assert.False(t, m.Resolved)

	// Formato de fecha corto también debe parsear
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), markets[1].EndDate)
}

func TestFetchActiveMarkets_VolumeFloor(t *testing.T) {
	fixture := `[
		{"conditionId": "0xbig", "question": "Q1?", "volume24hr": 50000,
		 "tokens": [{"token_id": "a", "outcome": "Yes", "price": 0.5}, {"token_id": "b", "outcome": "No", "price": 0.5}]},
		{"conditionId": "0xsmall", "question": "Q2?", "volume24hr": 9000,
		 "tokens": [{"token_id": "c", "outcome": "Yes", "price": 0.5}, {"token_id": "d", "outcome": "No", "price": 0.5}]}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	markets, err := client.FetchActiveMarkets(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "0xbig", markets[0].ConditionID)
}

func TestFetchActiveMarkets_SkipsUnparseable(t *testing.T) {
	// El segundo mercado no trae pregunta: se salta sin abortar el fetch
	fixture := `[
		{"conditionId": "0xok", "question": "Valid?", "volume24hr": 50000,
		 "tokens": [{"token_id": "a", "outcome": "Yes", "price": 0.6}, {"token_id": "b", "outcome": "No", "price": 0.41}]},
		{"conditionId": "0xbroken", "volume24hr": 60000, "tokens": []}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	markets, err := client.FetchActiveMarkets(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "0xok", markets[0].ConditionID)
}

func TestFetchActiveMarkets_FallbackFieldsAndDefaults(t *testing.T) {
	// Sin conditionId usa el id numérico; sin tokens asume precios 0.5
	fixture := `[
		{"id": "777", "question": "Old style market?", "volume24hr": 20000, "tokens": []}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	markets, err := client.FetchActiveMarkets(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "777", markets[0].ConditionID)
	assert.InDelta(t, 0.5, markets[0].YesPrice, 0.0001)
	assert.InDelta(t, 0.5, markets[0].NoPrice, 0.0001)
	assert.True(t, markets[0].EndDate.IsZero())
}

func TestFetchActiveMarkets_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.FetchActiveMarkets(context.Background(), 50)
	assert.Error(t, err)
}

func TestCheckResolution_States(t *testing.T) {
	cases := []struct {
		name         string
		body         string
		wantResolved bool
		wantOutcome  string
	}{
		{
			name:         "resolved yes",
			body:         `{"conditionId": "0xa", "closed": true, "resolution": "YES"}`,
			wantResolved: true,
			wantOutcome:  "YES",
		},
		{
			name:         "resolved via outcome field",
			body:         `{"conditionId": "0xa", "resolved": true, "outcome": "No"}`,
			wantResolved: true,
			wantOutcome:  "No",
		},
		{
			name:         "still open",
			body:         `{"conditionId": "0xa", "closed": false}`,
			wantResolved: false,
			wantOutcome:  "",
		},
		{
			name:         "closed without binary outcome",
			body:         `{"conditionId": "0xa", "closed": true}`,
			wantResolved: true,
			wantOutcome:  "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/markets/0xa", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := newTestClient(srv)
			res, err := client.CheckResolution(context.Background(), "0xa")

			require.NoError(t, err)
			assert.Equal(t, tc.wantResolved, res.Resolved)
			assert.Equal(t, tc.wantOutcome, res.Outcome)
		})
	}
}

func TestCheckResolution_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.CheckResolution(context.Background(), "0xmissing")
	assert.Error(t, err)
}
