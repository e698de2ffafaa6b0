package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garprun/garprun/internal/filter"
	"github.com/garprun/garprun/internal/models"
)

func testTransport() *Transport {
	return NewTransport(5*time.Second, 1000, 1000, fmpProviderName)
}

func TestUniverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stock-screener", r.URL.Path)
		assert.Equal(t, "2000000000", r.URL.Query().Get("marketCapMoreThan"))
		assert.Equal(t, "NASDAQ", r.URL.Query().Get("exchange"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		fmt.Fprint(w, `[
			{"symbol":"ACME","companyName":"Acme Corp","sector":"Technology","industry":"Software","exchangeShortName":"NASDAQ","price":42.5,"marketCap":5000000000,"volume":1200000},
			{"symbol":"BOLT","companyName":"Bolt Inc","sector":"Industrials","industry":"Machinery","exchangeShortName":"NASDAQ","price":18.0,"marketCap":2500000000,"volume":400000}
		]`)
	}))
	defer server.Close()

	client := NewFMPClient(server.URL, "test-key", testTransport())

	op := filter.Operability{
		MarketCapMin: models.Float(2e9),
		Exchange:     "NASDAQ",
	}
	stocks, err := client.Universe(context.Background(), op, 0)
	require.NoError(t, err)
	require.Len(t, stocks, 2)

	assert.Equal(t, "ACME", stocks[0].Symbol)
	assert.Equal(t, "Acme Corp", stocks[0].Name)
	assert.Equal(t, "Technology", stocks[0].Sector)
	assert.Equal(t, 42.5, stocks[0].Price)
	assert.Equal(t, "fmp", stocks[0].DataSource)
}

func TestFundamentals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ratios-ttm/ACME":
			fmt.Fprint(w, `[{"peRatioTTM":15.5,"pegRatioTTM":1.1,"returnOnEquityTTM":0.22,"currentRatioTTM":1.8,"debtEquityRatioTTM":0.4}]`)
		case "/financial-growth/ACME":
			fmt.Fprint(w, `[{"fiveYNetIncomeGrowthPerShare":0.18,"fiveYRevenueGrowthPerShare":0.12}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewFMPClient(server.URL, "", testTransport())

	metrics, err := client.Fundamentals(context.Background(), "ACME")
	require.NoError(t, err)

	require.NotNil(t, metrics.PERatio)
	assert.Equal(t, 15.5, *metrics.PERatio)
	require.NotNil(t, metrics.EPSGrowth5Y)
	assert.Equal(t, 0.18, *metrics.EPSGrowth5Y)
	assert.Nil(t, metrics.PBRatio, "omitted fields stay unknown")
}

func TestFundamentals_GrowthFailureIsTolerated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ratios-ttm/ACME":
			fmt.Fprint(w, `[{"peRatioTTM":15.5}]`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewFMPClient(server.URL, "", testTransport())

	metrics, err := client.Fundamentals(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, metrics.PERatio)
	assert.Nil(t, metrics.EPSGrowth5Y)
}

func TestDailyCloses_ReversesToMostRecentLast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "63", r.URL.Query().Get("timeseries"))
		fmt.Fprint(w, `{"symbol":"ACME","historical":[
			{"date":"2026-08-03","close":105},
			{"date":"2026-08-02","close":102},
			{"date":"2026-08-01","close":100}
		]}`)
	}))
	defer server.Close()

	client := NewFMPClient(server.URL, "", testTransport())

	closes, err := client.DailyCloses(context.Background(), "ACME", 63)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 102, 105}, closes)
}

func TestNews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ACME", r.URL.Query().Get("tickers"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `[{"title":"Acme beats estimates","url":"https://example.com/1","site":"example","publishedDate":"2026-08-20"}]`)
	}))
	defer server.Close()

	client := NewFMPClient(server.URL, "", testTransport())

	items, err := client.News(context.Background(), "ACME", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Acme beats estimates", items[0].Title)
	assert.Equal(t, "example", items[0].Source)
}

func TestNextEarnings_SkipsPastDates(t *testing.T) {
	future := time.Now().UTC().AddDate(0, 0, 14).Format("2006-01-02")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"date":"2020-01-01","epsEstimated":1.0},
			{"date":"%s","epsEstimated":2.5}
		]`, future)
	}))
	defer server.Close()

	client := NewFMPClient(server.URL, "", testTransport())

	info, err := client.NextEarnings(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, info)
	require.NotNil(t, info.NextEarningsDate)
	assert.Equal(t, future, info.NextEarningsDate.Format("2006-01-02"))
	require.NotNil(t, info.EPSEstimate)
	assert.Equal(t, 2.5, *info.EPSEstimate)
}

func TestNextEarnings_NoneScheduled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"date":"2020-01-01"}]`)
	}))
	defer server.Close()

	client := NewFMPClient(server.URL, "", testTransport())

	info, err := client.NextEarnings(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestSecondaryStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ratios-ttm/ACME":
			fmt.Fprint(w, `[{"pegRatioTTM":1.3}]`)
		case "/analyst-estimates/ACME":
			fmt.Fprint(w, `[{"date":"2027-12-31","estimatedEpsAvg":5.0},{"date":"2026-12-31","estimatedEpsAvg":4.0}]`)
		case "/quote/ACME":
			fmt.Fprint(w, `[{"symbol":"ACME","price":100,"changesPercentage":1.2,"pe":25,"eps":4.0}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewFMPClient(server.URL, "", testTransport())

	stats, err := client.SecondaryStats(context.Background(), "ACME")
	require.NoError(t, err)

	require.NotNil(t, stats.PEG)
	assert.Equal(t, 1.3, *stats.PEG)
	require.NotNil(t, stats.EPSNextYear)
	assert.Equal(t, 5.0, *stats.EPSNextYear)
	require.NotNil(t, stats.EPSThisYear)
	assert.Equal(t, 4.0, *stats.EPSThisYear)
	require.NotNil(t, stats.ForwardPE)
	assert.InDelta(t, 20.0, *stats.ForwardPE, 1e-9)
}

func TestGetJSON_Non200IsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewFMPClient(server.URL, "", testTransport())

	_, err := client.Universe(context.Background(), filter.Operability{}, 0)
	assert.Error(t, err)
}
