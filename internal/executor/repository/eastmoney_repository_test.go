package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"golang-stock-indicator/internal/executor/config"
	"golang-stock-indicator/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const klineBody = `{"rc":0,"data":{"code":"600000","market":1,"name":"浦发银行","klines":[
"2025-10-30,11.50,11.62,11.70,11.45,523451,608976543.00,2.17,1.04,0.12,0.18",
"2025-10-31,11.62,11.40,11.66,11.38,498765,571234567.00,2.41,-1.89,-0.22,0.17"]}}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) MarketDataRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewEastMoneyRepository(config.Provider{
		BaseURL:             srv.URL,
		ListURL:             srv.URL,
		MaxRequestPerMinute: 60000,
		MaxRetries:          2,
		RetryDelay:          time.Millisecond,
		RetryDelayThrottled: 2 * time.Millisecond,
		Timeout:             time.Second,
		Adjust:              1,
	}, logger.NewNop())
}

func TestFetchDailyBars(t *testing.T) {
	var query atomic.Value
	repo := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.Query())
		w.Write([]byte(klineBody))
	})

	start := time.Date(2025, 10, 30, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)
	bars, err := repo.FetchDailyBars(context.Background(), "600000.SH", start, end)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	q := query.Load().(url.Values)
	assert.Equal(t, []string{"1.600000"}, q["secid"])
	assert.Equal(t, []string{"20251030"}, q["beg"])
	assert.Equal(t, []string{"20251031"}, q["end"])
	assert.Equal(t, []string{"1"}, q["fqt"])

	b := bars[1]
	assert.Equal(t, "600000.SH", b.Symbol)
	assert.Equal(t, end, b.Date)
	assert.Equal(t, 11.62, b.Open)
	assert.Equal(t, 11.40, b.Close)
	assert.Equal(t, 11.66, b.High)
	assert.Equal(t, 11.38, b.Low)
	assert.Equal(t, int64(49876500), b.Volume)
	require.NotNil(t, b.PreviousClose)
	assert.Equal(t, 11.62, *b.PreviousClose)
	assert.Equal(t, 0.17, *b.Turnover)
}

func TestFetchDailyBarsEmptyRange(t *testing.T) {
	repo := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rc":0,"data":{"code":"000001","klines":[]}}`))
	})

	bars, err := repo.FetchDailyBars(context.Background(), "000001.SZ", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestFetchDailyBarsUnknownSymbol(t *testing.T) {
	repo := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rc":0,"data":null}`))
	})

	_, err := repo.FetchDailyBars(context.Background(), "600999.SH", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrUpstreamRejected)

	_, err = repo.FetchDailyBars(context.Background(), "AAPL", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrUpstreamRejected)
}

func TestFetchDailyBarsRetriesTransientFailures(t *testing.T) {
	var calls int32
	repo := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.Write([]byte(klineBody))
		}
	})

	bars, err := repo.FetchDailyBars(context.Background(), "600000.SH", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchDailyBarsGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	repo := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := repo.FetchDailyBars(context.Background(), "600000.SH", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchDailyBarsDoesNotRetryRejections(t *testing.T) {
	var calls int32
	repo := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := repo.FetchDailyBars(context.Background(), "600000.SH", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrUpstreamRejected)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryDelayDoublesUpToCap(t *testing.T) {
	base := 500 * time.Millisecond
	assert.Equal(t, 500*time.Millisecond, retryDelay(base, 1))
	assert.Equal(t, time.Second, retryDelay(base, 2))
	assert.Equal(t, 2*time.Second, retryDelay(base, 3))
	assert.Equal(t, 4*time.Second, retryDelay(base, 4))
	assert.Equal(t, maxRetryDelay, retryDelay(base, 12))
	assert.Equal(t, maxRetryDelay, retryDelay(time.Minute, 1))
}

func TestFetchStockList(t *testing.T) {
	repo := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/qt/clist/get", r.URL.Path)
		w.Write([]byte(`{"data":{"total":4,"diff":[
			{"f12":"600000","f14":"浦发银行","f39":29352177375},
			{"f12":"000001","f14":"平安银行","f39":19405546950},
			{"f12":"300750","f14":"宁德时代","f39":"-"},
			{"f12":"830799","f14":"艾融软件","f39":100}]}}`))
	})

	stocks, err := repo.FetchStockList(context.Background())
	require.NoError(t, err)
	require.Len(t, stocks, 3)

	assert.Equal(t, "600000.SH", stocks[0].Symbol)
	assert.Equal(t, "SH", stocks[0].Exchange)
	require.NotNil(t, stocks[0].FloatShare)
	assert.Equal(t, 29352177375.0, *stocks[0].FloatShare)
	assert.Equal(t, "000001.SZ", stocks[1].Symbol)
	assert.Equal(t, "300750.SZ", stocks[2].Symbol)
	assert.Nil(t, stocks[2].FloatShare)
}

func TestSecID(t *testing.T) {
	tests := map[string]string{
		"600000.SH": "1.600000",
		"000300.SH": "1.000300",
		"000001.SZ": "0.000001",
		"399006.SZ": "0.399006",
	}
	for symbol, want := range tests {
		got, err := SecID(symbol)
		require.NoError(t, err)
		assert.Equal(t, want, got, symbol)
	}

	_, err := SecID("600000")
	assert.Error(t, err)
}
