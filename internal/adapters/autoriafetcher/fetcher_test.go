package autoriafetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<section class="ticket-item"><a class="address" href="https://auto.ria.com/uk/auto_first_1.html">first</a></section>
<section class="ticket-item"><a class="address">no href here</a></section>
<section class="ticket-item"><a class="address" href="https://auto.ria.com/uk/auto_second_2.html">second</a></section>
<section class="ticket-item"><a class="address" href="https://auto.ria.com/uk/auto_third_3.html">third</a></section>
</body></html>`

func newTestAdapter(t *testing.T, startURL string, retries int) *AutoRiaFetcherAdapter {
	t.Helper()

	adapter, err := NewAutoRiaFetcherAdapter(Config{
		StartURL:         startURL,
		MaxParallelism:   2,
		RetryAttempts:    retries,
		RequestTimeout:   5 * time.Second,
		RandomDelay:      time.Millisecond,
		RateLimitBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return adapter
}

func TestFetchLinksPreservesOrderAndDropsEmptyAnchors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		fmt.Fprint(w, listingPage)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL+"/uk/car/used/", 2)

	links, err := adapter.FetchLinks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, links, 3)

	assert.Equal(t, "https://auto.ria.com/uk/auto_first_1.html", links[0].URL)
	assert.Equal(t, "https://auto.ria.com/uk/auto_second_2.html", links[1].URL)
	assert.Equal(t, "https://auto.ria.com/uk/auto_third_3.html", links[2].URL)
}

func TestFetchLinksUnavailablePageIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL+"/uk/car/used/", 2)

	links, err := adapter.FetchLinks(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestFetchAdDetailsRetriesTransientFailures(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, fullAdPage)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 3)

	record, err := adapter.FetchAdDetails(context.Background(), server.URL+"/auto_audi_a6_1.html")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "Audi A6 2015", record.Title)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestFetchAdDetailsExhaustedRetriesMeansUnavailable(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 2)

	record, err := adapter.FetchAdDetails(context.Background(), server.URL+"/auto_gone_9.html")
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestFetchAdDetailsRateLimitBacksOffAndRetries(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, fullAdPage)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 2)

	record, err := adapter.FetchAdDetails(context.Background(), server.URL+"/auto_audi_a6_1.html")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestFetchAdDetailsParseFaultIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, noTitlePage)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 2)

	record, err := adapter.FetchAdDetails(context.Background(), server.URL+"/auto_broken_5.html")
	require.Error(t, err)
	assert.Nil(t, record)
}
