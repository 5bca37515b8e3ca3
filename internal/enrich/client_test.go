package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"harvester/internal/config"
	"harvester/internal/logging"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(config.Enrichment{APIKey: "  "}, logging.NewNop())
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestEnrichParsesResponse(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		doc := `{"behavioral_description":"Lists users.","inferred_intent":"Expose the user directory.","given_when_then":[{"given":"users exist","when":"the route is called","then":"users are returned"}],"data_flow":"db to client","priority":"high","dependencies":["User model"]}`
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": doc}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := New(config.Enrichment{
		APIKey:         "sk-test",
		BaseURL:        server.URL,
		Model:          "gpt-4.1-mini",
		TimeoutSeconds: 5,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc, err := client.Enrich(context.Background(), Request{
		SurfaceType: "route",
		SurfaceName: "GET /users",
	})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody.Model != "gpt-4.1-mini" {
		t.Fatalf("model = %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", gotBody.Messages)
	}
	if doc.BehavioralDescription != "Lists users." {
		t.Fatalf("behavioral description = %q", doc.BehavioralDescription)
	}
	if len(doc.GivenWhenThen) != 1 || doc.GivenWhenThen[0].Then != "users are returned" {
		t.Fatalf("given/when/then = %+v", doc.GivenWhenThen)
	}
	if doc.Priority != "high" {
		t.Fatalf("priority = %q", doc.Priority)
	}
}

func TestEnrichNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := New(config.Enrichment{APIKey: "sk-test", BaseURL: server.URL, TimeoutSeconds: 5}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Enrich(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestParseDocument(t *testing.T) {
	cases := []struct {
		name         string
		content      string
		wantErr      bool
		wantPriority string
	}{
		{
			name:         "plain json",
			content:      `{"behavioral_description":"x","priority":"low"}`,
			wantPriority: "low",
		},
		{
			name:         "fenced json",
			content:      "```json\n{\"behavioral_description\":\"x\",\"priority\":\"critical\"}\n```",
			wantPriority: "critical",
		},
		{
			name:         "unknown priority normalized",
			content:      `{"priority":"urgent"}`,
			wantPriority: "medium",
		},
		{
			name:         "empty priority kept",
			content:      `{}`,
			wantPriority: "",
		},
		{
			name:    "not json",
			content: "the route lists users",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := parseDocument(tc.content)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDocument: %v", err)
			}
			if doc.Priority != tc.wantPriority {
				t.Fatalf("priority = %q, want %q", doc.Priority, tc.wantPriority)
			}
		})
	}
}

func TestGatePacesWithClock(t *testing.T) {
	base := time.Unix(1000, 0)
	now := base
	g := newGate(60, func() time.Time { return now }) // 1s interval

	// First call takes the immediate slot.
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	// A full interval later the next slot is free again: no sleep, so
	// Wait returns immediately even with a huge interval.
	now = base.Add(time.Second)
	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait blocked although the slot was free")
	}
}

func TestGateCancellation(t *testing.T) {
	g := newGate(1, nil) // 60s interval
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := g.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("cancellation not honored promptly")
	}
}

func TestGateDisabledWithoutRPM(t *testing.T) {
	g := newGate(0, nil)
	for i := 0; i < 3; i++ {
		if err := g.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
}
