/*

This file implements the live Ledger against the JSON-RPC facade the chain
node exposes for the reputation contract. Reads retry transient transport
failures with exponential backoff; writes are additionally throttled so a
burst of resolved predictions cannot flood the node.

*/

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/KcPele/lobster-sage-sub001/internal/logger"
	"github.com/KcPele/lobster-sage-sub001/internal/types"
	"github.com/KcPele/lobster-sage-sub001/internal/utils"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidEndpoint  = errors.New("endpoint is invalid")
	ErrInvalidContract  = errors.New("contract address is invalid")
	ErrRPCRequestFailed = errors.New("RPC request failed")
	ErrInvalidResponse  = errors.New("response data is invalid")
)

var ledgerLogger = logger.GetForComponent("ledger_client")

const (
	rpcCallTimeout  = 15 * time.Second
	maxReadRetries  = 3
	maxWriteRetries = 2
)

// JSON-RPC structures for node calls

// JSONRPCRequest defines the structure of a JSON-RPC request.
type JSONRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// JSONRPCResponse defines the structure of a JSON-RPC response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError defines the structure of a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// contractParams is the common parameter envelope for contract calls.
type contractParams struct {
	Contract string `json:"contract"`
	Address  string `json:"address,omitempty"`
	Count    int    `json:"count,omitempty"`
	Percent  int    `json:"percent,omitempty"`
}

// recordParams carries write payloads. Fixed-point amounts travel as decimal
// strings to survive JSON number precision limits.
type recordParams struct {
	Contract      string `json:"contract"`
	Recorder      string `json:"recorder"`
	Address       string `json:"address"`
	Success       *bool  `json:"success,omitempty"`
	Confidence    *int   `json:"confidence,omitempty"`
	AccuracyScore *int64 `json:"accuracy_score,omitempty"`
	Amount        string `json:"amount,omitempty"`
}

// breakdownResult mirrors the contract's breakdown struct. The contract has
// no floating point: the accuracy percentage arrives as basis points and USD
// amounts as 18-decimal fixed-point strings.
type breakdownResult struct {
	TotalScore         int64  `json:"total_score"`
	AccuracyPoints     int64  `json:"accuracy_points"`
	VolumePoints       int64  `json:"volume_points"`
	ConsistencyPoints  int64  `json:"consistency_points"`
	YieldPoints        int64  `json:"yield_points"`
	AccuracyBps        int64  `json:"accuracy_bps"`
	PredictionsMade    uint64 `json:"predictions_made"`
	PredictionsCorrect uint64 `json:"predictions_correct"`
	ConsecutiveDays    int    `json:"consecutive_days"`
	TotalVolumeWAD     string `json:"total_volume_wad"`
	TotalYieldWAD      string `json:"total_yield_wad"`
}

// leaderboardResult mirrors the contract's parallel address/score arrays.
type leaderboardResult struct {
	Addresses []string `json:"addresses"`
	Scores    []int64  `json:"scores"`
}

// tierBoundsResult carries the contract's step-function bounds as fixed-point strings.
type tierBoundsResult struct {
	Bounds []string `json:"bounds"`
}

// Client is the live JSON-RPC Ledger implementation.
type Client struct {
	endpoint   string
	contract   string
	recorder   string
	httpClient *http.Client
	limiter    *rate.Limiter
	requestID  atomic.Uint64
}

var _ Ledger = (*Client)(nil)

// NewClient creates a live ledger client with comprehensive validation.
// Inputs:
//   - endpoint: the node's JSON-RPC HTTP endpoint.
//   - contract: the reputation contract address.
//   - recorder: the address this engine writes as.
//   - writeRPS: maximum ledger write submissions per second.
func NewClient(endpoint, contract, recorder string, writeRPS float64) (*Client, error) {
	if endpoint == "" {
		return nil, errors.Join(ErrInvalidEndpoint, errors.New("endpoint cannot be empty"))
	}
	if contract == "" {
		return nil, errors.Join(ErrInvalidContract, errors.New("contract address cannot be empty"))
	}
	if recorder == "" {
		return nil, errors.New("recorder address cannot be empty")
	}
	if writeRPS <= 0 {
		return nil, fmt.Errorf("write rate must be positive, got %f", writeRPS)
	}

	client := &Client{
		endpoint: endpoint,
		contract: types.NormalizeAddress(contract),
		recorder: types.NormalizeAddress(recorder),
		httpClient: &http.Client{
			Timeout: rpcCallTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(writeRPS), 1),
	}

	ledgerLogger.Info().
		Str("endpoint", endpoint).
		Str("contract", client.contract).
		Str("recorder", client.recorder).
		Float64("writeRPS", writeRPS).
		Msg("Ledger client initialized")

	return client, nil
}

// call performs a single JSON-RPC round trip and decodes the result.
func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	request := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Join(ErrRPCRequestFailed, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return errors.Join(ErrRPCRequestFailed, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP status %d", ErrRPCRequestFailed, httpResp.StatusCode)
	}

	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return errors.Join(ErrInvalidResponse, err)
	}
	if rpcResp.Error != nil {
		// Application-level errors (contract reverts, bad params) are not
		// retryable; transport retries must not repeat them.
		return backoff.Permanent(fmt.Errorf("RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message))
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return errors.Join(ErrInvalidResponse, err)
		}
	}
	return nil
}

// read wraps call with bounded exponential backoff for transient failures.
func (c *Client) read(ctx context.Context, method string, params interface{}, result interface{}) error {
	operation := func() error {
		return c.call(ctx, method, params, result)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxReadRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return errors.Join(ErrRead, err)
	}
	return nil
}

// write throttles then submits a state-changing call, waiting for the node to
// confirm inclusion before returning.
func (c *Client) write(ctx context.Context, method string, params interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Join(ErrWrite, err)
	}
	operation := func() error {
		return c.call(ctx, method, params, nil)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxWriteRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return errors.Join(ErrWrite, err)
	}
	return nil
}

// GetReputation returns the contract's full breakdown for the address.
func (c *Client) GetReputation(ctx context.Context, address string) (types.ReputationBreakdown, error) {
	var raw breakdownResult
	params := contractParams{Contract: c.contract, Address: types.NormalizeAddress(address)}
	if err := c.read(ctx, "reputation_getBreakdown", params, &raw); err != nil {
		return types.ReputationBreakdown{}, err
	}
	return c.convertBreakdown(raw)
}

// convertBreakdown translates the contract's fixed-point wire form into the
// engine's float64 breakdown.
func (c *Client) convertBreakdown(raw breakdownResult) (types.ReputationBreakdown, error) {
	volumeUSD, err := parseWADString(raw.TotalVolumeWAD)
	if err != nil {
		return types.ReputationBreakdown{}, errors.Join(ErrInvalidResponse, fmt.Errorf("total_volume_wad: %w", err))
	}
	yieldUSD, err := parseWADString(raw.TotalYieldWAD)
	if err != nil {
		return types.ReputationBreakdown{}, errors.Join(ErrInvalidResponse, fmt.Errorf("total_yield_wad: %w", err))
	}

	return types.ReputationBreakdown{
		TotalScore:         raw.TotalScore,
		AccuracyPoints:     raw.AccuracyPoints,
		VolumePoints:       raw.VolumePoints,
		ConsistencyPoints:  raw.ConsistencyPoints,
		YieldPoints:        raw.YieldPoints,
		AccuracyPercentage: float64(raw.AccuracyBps) / 100,
		PredictionsMade:    raw.PredictionsMade,
		PredictionsCorrect: raw.PredictionsCorrect,
		ConsecutiveDays:    raw.ConsecutiveDays,
		TotalVolumeUSD:     volumeUSD,
		TotalYieldUSD:      yieldUSD,
		Source:             types.SourceLedger,
	}, nil
}

// GetScore returns the contract's total score for the address.
func (c *Client) GetScore(ctx context.Context, address string) (int64, error) {
	var score int64
	params := contractParams{Contract: c.contract, Address: types.NormalizeAddress(address)}
	if err := c.read(ctx, "reputation_getScore", params, &score); err != nil {
		return 0, err
	}
	return score, nil
}

// GetRank returns the 1-based rank of the address, or 0 if unranked.
func (c *Client) GetRank(ctx context.Context, address string) (uint64, error) {
	var rank uint64
	params := contractParams{Contract: c.contract, Address: types.NormalizeAddress(address)}
	if err := c.read(ctx, "reputation_getRank", params, &rank); err != nil {
		return 0, err
	}
	return rank, nil
}

// GetLeaderboard returns up to count entries ordered best first, including
// any placeholder slots the contract pads with.
func (c *Client) GetLeaderboard(ctx context.Context, count int) ([]types.LeaderboardEntry, error) {
	if count <= 0 {
		return nil, fmt.Errorf("leaderboard count must be positive, got %d", count)
	}

	var raw leaderboardResult
	params := contractParams{Contract: c.contract, Count: count}
	if err := c.read(ctx, "reputation_getLeaderboard", params, &raw); err != nil {
		return nil, err
	}
	if len(raw.Addresses) != len(raw.Scores) {
		return nil, fmt.Errorf("%w: %d addresses but %d scores", ErrInvalidResponse, len(raw.Addresses), len(raw.Scores))
	}

	entries := make([]types.LeaderboardEntry, 0, len(raw.Addresses))
	for i, address := range raw.Addresses {
		entries = append(entries, types.LeaderboardEntry{
			Address: types.NormalizeAddress(address),
			Score:   raw.Scores[i],
			Rank:    uint64(i + 1),
		})
	}
	return entries, nil
}

// IsTopPercent delegates the comparative check to the contract.
func (c *Client) IsTopPercent(ctx context.Context, address string, percent int) (bool, error) {
	var result bool
	params := contractParams{Contract: c.contract, Address: types.NormalizeAddress(address), Percent: percent}
	if err := c.read(ctx, "reputation_isTopPercent", params, &result); err != nil {
		return false, err
	}
	return result, nil
}

// TotalUsers returns the size of the ranked population.
func (c *Client) TotalUsers(ctx context.Context) (uint64, error) {
	var total uint64
	params := contractParams{Contract: c.contract}
	if err := c.read(ctx, "reputation_totalUsers", params, &total); err != nil {
		return 0, err
	}
	return total, nil
}

// IsAuthorizedRecorder reports whether the address may submit writes.
func (c *Client) IsAuthorizedRecorder(ctx context.Context, address string) (bool, error) {
	var authorized bool
	params := contractParams{Contract: c.contract, Address: types.NormalizeAddress(address)}
	if err := c.read(ctx, "reputation_isAuthorizedRecorder", params, &authorized); err != nil {
		return false, err
	}
	return authorized, nil
}

// VolumeTierBounds returns the contract's volume step bounds in USD.
func (c *Client) VolumeTierBounds(ctx context.Context) ([]float64, error) {
	return c.tierBounds(ctx, "reputation_volumeTierBounds")
}

// YieldTierBounds returns the contract's yield step bounds in USD.
func (c *Client) YieldTierBounds(ctx context.Context) ([]float64, error) {
	return c.tierBounds(ctx, "reputation_yieldTierBounds")
}

func (c *Client) tierBounds(ctx context.Context, method string) ([]float64, error) {
	var raw tierBoundsResult
	params := contractParams{Contract: c.contract}
	if err := c.read(ctx, method, params, &raw); err != nil {
		return nil, err
	}

	bounds := make([]float64, 0, len(raw.Bounds))
	for i, wad := range raw.Bounds {
		usd, err := parseWADString(wad)
		if err != nil {
			return nil, errors.Join(ErrInvalidResponse, fmt.Errorf("bound %d: %w", i, err))
		}
		bounds = append(bounds, usd)
	}
	return bounds, nil
}

// RecordPrediction submits a resolved prediction outcome.
func (c *Client) RecordPrediction(ctx context.Context, address string, success bool, confidence int, accuracyScore int64) error {
	params := recordParams{
		Contract:      c.contract,
		Recorder:      c.recorder,
		Address:       types.NormalizeAddress(address),
		Success:       &success,
		Confidence:    &confidence,
		AccuracyScore: &accuracyScore,
	}
	return c.write(ctx, "reputation_recordPrediction", params)
}

// RecordVolume submits a fixed-point USD trading volume amount.
func (c *Client) RecordVolume(ctx context.Context, address string, amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return errors.Join(ErrWrite, errors.New("volume amount must be a non-negative fixed-point integer"))
	}
	params := recordParams{
		Contract: c.contract,
		Recorder: c.recorder,
		Address:  types.NormalizeAddress(address),
		Amount:   amount.String(),
	}
	return c.write(ctx, "reputation_recordVolume", params)
}

// RecordActivity marks the address active for the current day.
func (c *Client) RecordActivity(ctx context.Context, address string) error {
	params := recordParams{
		Contract: c.contract,
		Recorder: c.recorder,
		Address:  types.NormalizeAddress(address),
	}
	return c.write(ctx, "reputation_recordActivity", params)
}

// RecordYield submits a fixed-point USD realized profit amount.
func (c *Client) RecordYield(ctx context.Context, address string, profit sdkmath.Int) error {
	if profit.IsNil() || profit.IsNegative() {
		return errors.Join(ErrWrite, errors.New("yield amount must be a non-negative fixed-point integer"))
	}
	params := recordParams{
		Contract: c.contract,
		Recorder: c.recorder,
		Address:  types.NormalizeAddress(address),
		Amount:   profit.String(),
	}
	return c.write(ctx, "reputation_recordYield", params)
}

// RecordBurn submits a stake burn event.
func (c *Client) RecordBurn(ctx context.Context, address string) error {
	params := recordParams{
		Contract: c.contract,
		Recorder: c.recorder,
		Address:  types.NormalizeAddress(address),
	}
	return c.write(ctx, "reputation_recordBurn", params)
}

// Close releases idle transport connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// parseWADString decodes an 18-decimal fixed-point decimal string into USD.
func parseWADString(wad string) (float64, error) {
	if wad == "" {
		return 0, nil
	}
	amount, ok := sdkmath.NewIntFromString(wad)
	if !ok {
		return 0, fmt.Errorf("not a valid fixed-point integer: %q", wad)
	}
	return utils.WADToUSD(amount)
}
