package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardscout/cardscout/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestHubStreamsDealsToSubscribers(t *testing.T) {
	hub := NewHub(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The first frame is the connection status envelope.
	status := readEnvelope(t, conn)
	assert.Equal(t, "status", status.Type)

	hub.BroadcastDeal(domain.EvaluatedListing{
		Listing: domain.Listing{ID: "deal-1", Title: "Luka Doncic Prizm"},
		Score:   domain.ScoreBreakdown{FinalScore: 8.4},
	})

	deal := readEnvelope(t, conn)
	assert.Equal(t, "deal", deal.Type)
	var payload domain.EvaluatedListing
	require.NoError(t, json.Unmarshal(deal.Payload, &payload))
	assert.Equal(t, "deal-1", payload.Listing.ID)
}

func TestBroadcastDealDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(discardLogger())
	// Without a running event loop the queue fills up; extra deals must be
	// dropped rather than block the pipeline.
	for i := 0; i < 300; i++ {
		hub.BroadcastDeal(domain.EvaluatedListing{
			Listing: domain.Listing{ID: "d"},
		})
	}
	assert.Equal(t, 256, len(hub.broadcast))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	hub := NewHub(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop on cancel")
	}
}
