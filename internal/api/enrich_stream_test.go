package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cinewrap/internal/api"
	"cinewrap/internal/enrich"
	"cinewrap/internal/stats"
)

func dialEnrich(t *testing.T, srv *api.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/enrich"
	return websocket.DefaultDialer.Dial(url, header)
}

func readFrame(t *testing.T, conn *websocket.Conn) (api.EnrichMessage, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg api.EnrichMessage
	err := conn.ReadJSON(&msg)
	return msg, err
}

func TestEnrichStreamDeliversSnapshots(t *testing.T) {
	lookup := enrich.LookupFunc(func(_ context.Context, title, _ string) (*enrich.Metadata, error) {
		return &enrich.Metadata{
			Genres: []string{"Crime"},
			Cast:   []enrich.Person{{Name: "Al Pacino"}},
		}, nil
	})
	merger := enrich.NewMerger(enrich.Options{BatchSize: 2, BatchDelay: -1}, nil)
	srv := newServer(t, testConfig(t), api.Dependencies{Lookup: lookup, Merger: merger})

	conn, _, err := dialEnrich(t, srv, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	films := []stats.SimpleMovie{{Title: "Heat", Year: "1995"}, {Title: "Serpico", Year: "1973"}, {Title: "Scarface", Year: "1983"}}
	if err := conn.WriteJSON(api.EnrichRequest{Films: films}); err != nil {
		t.Fatalf("write request: %v", err)
	}

	var snapshots []enrich.Snapshot
	for {
		msg, err := readFrame(t, conn)
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if msg.Type == api.MessageDone {
			if msg.Snapshot == nil || !msg.Snapshot.Done {
				t.Fatalf("done frame without final snapshot: %+v", msg)
			}
			break
		}
		if msg.Type != api.MessageSnapshot || msg.Snapshot == nil {
			t.Fatalf("unexpected frame: %+v", msg)
		}
		snapshots = append(snapshots, *msg.Snapshot)
	}

	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots for 3 films in batches of 2, got %d", len(snapshots))
	}
	if snapshots[0].Processed != 2 || snapshots[1].Processed != 3 {
		t.Fatalf("unexpected progress: %d, %d", snapshots[0].Processed, snapshots[1].Processed)
	}
	last := snapshots[1]
	if len(last.TopActors) != 1 || last.TopActors[0].Name != "Al Pacino" || last.TopActors[0].Count != 3 {
		t.Fatalf("unexpected actors: %+v", last.TopActors)
	}

	if _, err := readFrame(t, conn); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
}

func TestEnrichStreamCancel(t *testing.T) {
	lookup := enrich.LookupFunc(func(ctx context.Context, title, _ string) (*enrich.Metadata, error) {
		if title == "First" {
			return &enrich.Metadata{Genres: []string{"Drama"}}, nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	merger := enrich.NewMerger(enrich.Options{BatchSize: 1, BatchDelay: -1}, nil)
	srv := newServer(t, testConfig(t), api.Dependencies{Lookup: lookup, Merger: merger})

	conn, _, err := dialEnrich(t, srv, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	films := []stats.SimpleMovie{{Title: "First"}, {Title: "Second"}, {Title: "Third"}, {Title: "Fourth"}}
	if err := conn.WriteJSON(api.EnrichRequest{Films: films}); err != nil {
		t.Fatalf("write request: %v", err)
	}
	first, err := readFrame(t, conn)
	if err != nil || first.Type != api.MessageSnapshot || first.Snapshot.Processed != 1 {
		t.Fatalf("unexpected first frame: %+v (%v)", first, err)
	}
	if err := conn.WriteJSON(api.EnrichMessage{Type: api.MessageCancel}); err != nil {
		t.Fatalf("write cancel: %v", err)
	}

	for {
		msg, err := readFrame(t, conn)
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("expected normal close, got %v", err)
			}
			return
		}
		if msg.Type == api.MessageDone {
			t.Fatal("cancelled run must not report done")
		}
		if msg.Snapshot != nil && msg.Snapshot.Processed == len(films) {
			t.Fatal("cancelled run must not process every film")
		}
	}
}

func TestEnrichStreamRejectsUnknownOrigin(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	srv := newServer(t, cfg, api.Dependencies{})

	_, resp, err := dialEnrich(t, srv, "http://evil.example")
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func TestEnrichStreamRejectsBadRequest(t *testing.T) {
	srv := newServer(t, testConfig(t), api.Dependencies{})
	conn, _, err := dialEnrich(t, srv, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg, err := readFrame(t, conn)
	if err != nil || msg.Type != api.MessageError {
		t.Fatalf("expected error frame, got %+v (%v)", msg, err)
	}
}
