package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"autoria-parser-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDumpWriter struct {
	mu      sync.Mutex
	batches [][]domain.CarRecord
	err     error
}

func (w *fakeDumpWriter) Write(_ context.Context, records []domain.CarRecord) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, records)
	return "dumps/cars_dump_test.json", nil
}

// countingProcessor отслеживает пиковое число одновременных вызовов.
type countingProcessor struct {
	inFlight int32
	maxSeen  int32
	delay    time.Duration
	result   func(link domain.CarLink) domain.ExtractResult
}

func (p *countingProcessor) Execute(_ context.Context, link domain.CarLink, _ uuid.UUID) domain.ExtractResult {
	current := atomic.AddInt32(&p.inFlight, 1)
	for {
		peak := atomic.LoadInt32(&p.maxSeen)
		if current <= peak || atomic.CompareAndSwapInt32(&p.maxSeen, peak, current) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	atomic.AddInt32(&p.inFlight, -1)

	if p.result != nil {
		return p.result(link)
	}
	return domain.Extracted(sampleRecord(link.URL))
}

func linksForPages(pages map[int][]string) map[int][]domain.CarLink {
	out := make(map[int][]domain.CarLink, len(pages))
	for page, urls := range pages {
		links := make([]domain.CarLink, len(urls))
		for i, u := range urls {
			links[i] = domain.CarLink{URL: u}
		}
		out[page] = links
	}
	return out
}

func newScrapeUseCase(
	fetcher *fakeFetcher,
	storage *fakeStorage,
	dump *fakeDumpWriter,
	processor *countingProcessor,
	settings ScrapeSettings,
) *OrchestrateScrapingUseCase {
	return NewOrchestrateScrapingUseCase(fetcher, storage, dump, processor, settings)
}

func TestOrchestrateSkipsKnownLinksWithoutSideEffects(t *testing.T) {
	urls := []string{
		"https://auto.ria.com/uk/auto_first_1.html",
		"https://auto.ria.com/uk/auto_second_2.html",
	}
	fetcher := &fakeFetcher{links: linksForPages(map[int][]string{1: urls})}
	storage := &fakeStorage{known: map[string]bool{urls[0]: true, urls[1]: true}}
	dump := &fakeDumpWriter{}
	processor := &countingProcessor{}

	uc := newScrapeUseCase(fetcher, storage, dump, processor, ScrapeSettings{
		StartPage:     1,
		MaxPages:      1,
		MaxConcurrent: 5,
		SaveToJSON:    true,
		SaveToDB:      true,
	})

	stats, err := uc.Execute(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.PagesVisited)
	assert.Equal(t, 2, stats.LinksDiscovered)
	assert.Equal(t, 2, stats.LinksAlreadyStored)
	assert.Zero(t, stats.RecordsCollected)
	assert.Empty(t, dump.batches)
	assert.Empty(t, storage.saved)
}

func TestOrchestrateTreatsAllLinksAsNewWhenFilterFails(t *testing.T) {
	urls := []string{
		"https://auto.ria.com/uk/auto_first_1.html",
		"https://auto.ria.com/uk/auto_second_2.html",
		"https://auto.ria.com/uk/auto_third_3.html",
	}
	fetcher := &fakeFetcher{links: linksForPages(map[int][]string{1: urls})}
	storage := &fakeStorage{filterErr: errors.New("connection refused")}
	dump := &fakeDumpWriter{}
	processor := &countingProcessor{}

	uc := newScrapeUseCase(fetcher, storage, dump, processor, ScrapeSettings{
		StartPage:     1,
		MaxPages:      1,
		MaxConcurrent: 5,
		SaveToJSON:    false,
		SaveToDB:      true,
	})

	stats, err := uc.Execute(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.RecordsCollected)
	assert.Zero(t, stats.LinksAlreadyStored)
	require.Len(t, storage.saved, 1)
	assert.Len(t, storage.saved[0], 3)
}

func TestOrchestrateRespectsConcurrencyCeiling(t *testing.T) {
	const linkCount = 30
	const ceiling = 4

	urls := make([]string, linkCount)
	for i := range urls {
		urls[i] = "https://auto.ria.com/uk/auto_car_" + uuid.NewString() + ".html"
	}
	fetcher := &fakeFetcher{links: linksForPages(map[int][]string{1: urls})}
	storage := &fakeStorage{}
	dump := &fakeDumpWriter{}
	processor := &countingProcessor{delay: 5 * time.Millisecond}

	uc := newScrapeUseCase(fetcher, storage, dump, processor, ScrapeSettings{
		StartPage:     1,
		MaxPages:      1,
		MaxConcurrent: ceiling,
		SaveToJSON:    false,
		SaveToDB:      false,
	})

	stats, err := uc.Execute(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, linkCount, stats.RecordsCollected)
	assert.LessOrEqual(t, atomic.LoadInt32(&processor.maxSeen), int32(ceiling))
	assert.Positive(t, atomic.LoadInt32(&processor.maxSeen))
}

func TestOrchestrateAggregatesMixedResultsAndPersists(t *testing.T) {
	okURL := "https://auto.ria.com/uk/auto_ok_1.html"
	goneURL := "https://auto.ria.com/uk/auto_gone_2.html"
	brokenURL := "https://auto.ria.com/uk/auto_broken_3.html"

	fetcher := &fakeFetcher{links: linksForPages(map[int][]string{
		1: {okURL, goneURL},
		2: {brokenURL},
	})}
	storage := &fakeStorage{}
	dump := &fakeDumpWriter{}
	processor := &countingProcessor{result: func(link domain.CarLink) domain.ExtractResult {
		switch link.URL {
		case goneURL:
			return domain.Skipped("page unavailable")
		case brokenURL:
			return domain.Failed("missing title element")
		default:
			return domain.Extracted(sampleRecord(link.URL))
		}
	}}

	uc := newScrapeUseCase(fetcher, storage, dump, processor, ScrapeSettings{
		StartPage:     1,
		MaxPages:      2,
		MaxConcurrent: 5,
		SaveToJSON:    true,
		SaveToDB:      true,
	})

	stats, err := uc.Execute(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.PagesVisited)
	assert.Equal(t, 3, stats.LinksDiscovered)
	assert.Equal(t, 1, stats.LinksSkipped)
	assert.Equal(t, 1, stats.LinksFailed)
	assert.Equal(t, 1, stats.RecordsCollected)

	require.Len(t, dump.batches, 1)
	require.Len(t, storage.saved, 1)
	require.Len(t, storage.saved[0], 1)
	assert.Equal(t, okURL, storage.saved[0][0].URL)
}

func TestOrchestrateDumpSurvivesStorageFailure(t *testing.T) {
	adURL := "https://auto.ria.com/uk/auto_ok_1.html"
	fetcher := &fakeFetcher{links: linksForPages(map[int][]string{1: {adURL}})}
	storage := &fakeStorage{saveErr: errors.New("deadlock detected")}
	dump := &fakeDumpWriter{}
	processor := &countingProcessor{}

	uc := newScrapeUseCase(fetcher, storage, dump, processor, ScrapeSettings{
		StartPage:     1,
		MaxPages:      1,
		MaxConcurrent: 2,
		SaveToJSON:    true,
		SaveToDB:      true,
	})

	stats, err := uc.Execute(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.RecordsCollected)
	require.Len(t, dump.batches, 1)
	assert.Empty(t, storage.saved)
}

func TestOrchestrateCountsLinklessPagesAsVisited(t *testing.T) {
	adURL := "https://auto.ria.com/uk/auto_ok_1.html"
	// страница 2 недоступна либо пуста: ссылок нет, но опрос прошел
	fetcher := &fakeFetcher{links: linksForPages(map[int][]string{1: {adURL}})}
	storage := &fakeStorage{}
	dump := &fakeDumpWriter{}
	processor := &countingProcessor{}

	uc := newScrapeUseCase(fetcher, storage, dump, processor, ScrapeSettings{
		StartPage:     1,
		MaxPages:      2,
		MaxConcurrent: 2,
		SaveToJSON:    false,
		SaveToDB:      false,
	})

	stats, err := uc.Execute(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.PagesVisited)
	assert.Equal(t, 1, stats.LinksDiscovered)
	assert.Equal(t, 1, stats.RecordsCollected)
}

func TestOrchestrateSkipsFailedDiscoveryPages(t *testing.T) {
	fetcher := &fakeFetcher{linksErr: errors.New("network is unreachable")}
	storage := &fakeStorage{}
	dump := &fakeDumpWriter{}
	processor := &countingProcessor{}

	uc := newScrapeUseCase(fetcher, storage, dump, processor, ScrapeSettings{
		StartPage:     1,
		MaxPages:      3,
		MaxConcurrent: 2,
		SaveToJSON:    true,
		SaveToDB:      true,
	})

	stats, err := uc.Execute(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Zero(t, stats.PagesVisited)
	assert.Zero(t, stats.LinksDiscovered)
	assert.Zero(t, stats.RecordsCollected)
}
