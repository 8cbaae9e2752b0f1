package main

import (
	"context"
	"errors"
	"testing"

	"universe-curator/internal/domain"
	"universe-curator/internal/storage/memory"
)

type fakeSubscriber struct {
	calls []string
	err   error
}

func (f *fakeSubscriber) Subscribe(ticker string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, ticker)
	return nil
}

func putWatching(t *testing.T, watchlist *memory.WatchlistStore, ticker string) {
	t.Helper()
	err := watchlist.Put(context.Background(), &domain.WatchlistEntry{
		Ticker: ticker,
		Score:  80,
		Status: domain.StatusWatching,
	})
	if err != nil {
		t.Fatalf("Put %s: %v", ticker, err)
	}
}

func TestSyncSubscriptions_SubscribesWatchlist(t *testing.T) {
	watchlist := memory.NewWatchlistStore()
	putWatching(t, watchlist, "NVDA")
	putWatching(t, watchlist, "AMD")

	sub := &fakeSubscriber{}
	seen := make(map[string]bool)

	added, err := syncSubscriptions(context.Background(), watchlist, sub, seen)
	if err != nil {
		t.Fatalf("syncSubscriptions: %v", err)
	}
	if added != 2 || len(sub.calls) != 2 {
		t.Errorf("expected 2 subscriptions, got added=%d calls=%v", added, sub.calls)
	}
	if !seen["NVDA"] || !seen["AMD"] {
		t.Errorf("expected both tickers marked seen, got %v", seen)
	}
}

func TestSyncSubscriptions_PicksUpNewPromotions(t *testing.T) {
	watchlist := memory.NewWatchlistStore()
	putWatching(t, watchlist, "NVDA")

	sub := &fakeSubscriber{}
	seen := make(map[string]bool)

	if _, err := syncSubscriptions(context.Background(), watchlist, sub, seen); err != nil {
		t.Fatal(err)
	}

	// A scan promotes a new ticker after the stream started.
	putWatching(t, watchlist, "SMCI")

	added, err := syncSubscriptions(context.Background(), watchlist, sub, seen)
	if err != nil {
		t.Fatalf("syncSubscriptions: %v", err)
	}
	if added != 1 {
		t.Errorf("expected 1 new subscription, got %d", added)
	}
	if len(sub.calls) != 2 || sub.calls[1] != "SMCI" {
		t.Errorf("expected SMCI subscribed exactly once, got %v", sub.calls)
	}
}

func TestSyncSubscriptions_IdempotentWhenUnchanged(t *testing.T) {
	watchlist := memory.NewWatchlistStore()
	putWatching(t, watchlist, "NVDA")

	sub := &fakeSubscriber{}
	seen := make(map[string]bool)

	if _, err := syncSubscriptions(context.Background(), watchlist, sub, seen); err != nil {
		t.Fatal(err)
	}
	added, err := syncSubscriptions(context.Background(), watchlist, sub, seen)
	if err != nil {
		t.Fatal(err)
	}
	if added != 0 || len(sub.calls) != 1 {
		t.Errorf("resync of unchanged watchlist must not resubscribe: added=%d calls=%v", added, sub.calls)
	}
}

func TestSyncSubscriptions_SubscribeError(t *testing.T) {
	watchlist := memory.NewWatchlistStore()
	putWatching(t, watchlist, "NVDA")

	sub := &fakeSubscriber{err: errors.New("connection closed")}
	seen := make(map[string]bool)

	if _, err := syncSubscriptions(context.Background(), watchlist, sub, seen); err == nil {
		t.Error("expected subscribe error to surface")
	}
	if seen["NVDA"] {
		t.Error("failed subscription must not be marked seen")
	}
}
