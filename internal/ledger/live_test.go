package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	sdkmath "cosmossdk.io/math"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	client, err := NewClient(url, "0xContract", "0xRecorder", 100)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient("", "contract", "recorder", 1); !errors.Is(err, ErrInvalidEndpoint) {
		t.Errorf("expected ErrInvalidEndpoint, got %v", err)
	}
	if _, err := NewClient("http://node", "", "recorder", 1); !errors.Is(err, ErrInvalidContract) {
		t.Errorf("expected ErrInvalidContract, got %v", err)
	}
	if _, err := NewClient("http://node", "contract", "", 1); err == nil {
		t.Error("expected error for empty recorder")
	}
	if _, err := NewClient("http://node", "contract", "recorder", 0); err == nil {
		t.Error("expected error for zero write rate")
	}
}

func TestClient_GetReputation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req JSONRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "reputation_getBreakdown" {
			t.Errorf("expected method reputation_getBreakdown, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"total_score":         int64(7000),
				"accuracy_points":     int64(2800),
				"volume_points":       int64(2000),
				"consistency_points":  int64(1000),
				"yield_points":        int64(1200),
				"accuracy_bps":        int64(7000),
				"predictions_made":    uint64(10),
				"predictions_correct": uint64(7),
				"consecutive_days":    15,
				"total_volume_wad":    "5000000000000000000000",
				"total_yield_wad":     "500000000000000000000",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	breakdown, err := client.GetReputation(context.Background(), "0xAbC")
	if err != nil {
		t.Fatalf("GetReputation: %v", err)
	}

	if breakdown.TotalScore != 7000 {
		t.Errorf("expected total score 7000, got %d", breakdown.TotalScore)
	}
	if breakdown.AccuracyPercentage != 70.0 {
		t.Errorf("expected accuracy percentage 70, got %f", breakdown.AccuracyPercentage)
	}
	if breakdown.TotalVolumeUSD != 5000 {
		t.Errorf("expected volume 5000 USD, got %f", breakdown.TotalVolumeUSD)
	}
	if breakdown.TotalYieldUSD != 500 {
		t.Errorf("expected yield 500 USD, got %f", breakdown.TotalYieldUSD)
	}
	if breakdown.ConsecutiveDays != 15 {
		t.Errorf("expected 15 consecutive days, got %d", breakdown.ConsecutiveDays)
	}
}

func TestClient_GetLeaderboard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req JSONRPCRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "reputation_getLeaderboard" {
			t.Errorf("expected method reputation_getLeaderboard, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"addresses": []string{"0xFIRST", "0xsecond"},
				"scores":    []int64{9200, 7100},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	entries, err := client.GetLeaderboard(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Address != "0xfirst" {
		t.Errorf("expected normalized address 0xfirst, got %s", entries[0].Address)
	}
	if entries[0].Rank != 1 || entries[1].Rank != 2 {
		t.Errorf("expected ranks 1 and 2, got %d and %d", entries[0].Rank, entries[1].Rank)
	}
	if entries[1].Score != 7100 {
		t.Errorf("expected score 7100, got %d", entries[1].Score)
	}
}

func TestClient_GetLeaderboard_MismatchedArrays(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req JSONRPCRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"addresses": []string{"0xonly"},
				"scores":    []int64{9200, 7100},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GetLeaderboard(context.Background(), 10)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestClient_RecordVolume(t *testing.T) {
	var got recordParams

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req JSONRPCRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "reputation_recordVolume" {
			t.Errorf("expected method reputation_recordVolume, got %s", req.Method)
		}

		raw, _ := json.Marshal(req.Params)
		json.Unmarshal(raw, &got)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  true,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	amount, _ := sdkmath.NewIntFromString("1500000000000000000")
	if err := client.RecordVolume(context.Background(), "0xUser", amount); err != nil {
		t.Fatalf("RecordVolume: %v", err)
	}

	if got.Amount != "1500000000000000000" {
		t.Errorf("expected amount 1500000000000000000, got %s", got.Amount)
	}
	if got.Address != "0xuser" {
		t.Errorf("expected normalized address 0xuser, got %s", got.Address)
	}
	if got.Recorder != "0xrecorder" {
		t.Errorf("expected recorder 0xrecorder, got %s", got.Recorder)
	}
}

func TestClient_RecordVolume_RejectsNegative(t *testing.T) {
	client := newTestClient(t, "http://unused")
	err := client.RecordVolume(context.Background(), "addr", sdkmath.NewInt(-1))
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestClient_ReadRetriesTransientFailure(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		var req JSONRPCRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  int64(4200),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	score, err := client.GetScore(context.Background(), "addr")
	if err != nil {
		t.Fatalf("GetScore: %v", err)
	}

	if score != 4200 {
		t.Errorf("expected score 4200, got %d", score)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestClient_ApplicationErrorIsNotRetried(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)

		var req JSONRPCRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32000,
				"message": "unauthorized recorder",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.RecordBurn(context.Background(), "addr")
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}

	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 attempt for an application error, got %d", attempts.Load())
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.TotalUsers(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
