// Package decision implements the opaque decision RPC adapter: it turns a
// DecisionRequest into an HTTP call against a model's configured endpoint
// and parses the free-form action line back into an engine.Decision. It
// never touches game state directly — engine.Engine is the only thing that
// calls ApplyAIDecision.
package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"llmpoker/internal/engine"
)

// Endpoints maps a modelId to the HTTP endpoint that serves its decisions.
type Endpoints map[string]string

// HTTPAdapter implements engine.DecisionAdapter over HTTP(S) endpoints, one
// per model, with cost/latency/token accounting.
type HTTPAdapter struct {
	client    *http.Client
	endpoints Endpoints
	logger    zerolog.Logger
}

// New builds an HTTPAdapter. timeout bounds each outbound request.
func New(endpoints Endpoints, timeout time.Duration, logger zerolog.Logger) *HTTPAdapter {
	return &HTTPAdapter{
		client:    &http.Client{Timeout: timeout},
		endpoints: endpoints,
		logger:    logger.With().Str("component", "decision").Logger(),
	}
}

type rpcRequest struct {
	GameID         string                    `json:"gameId"`
	SeatIndex      int                       `json:"seatIndex"`
	HoleCards      []string                  `json:"holeCards"`
	Board          []string                  `json:"board"`
	Pot            int64                     `json:"pot"`
	HandNumber     int                       `json:"handNumber"`
	LegalActions   engine.LegalActions       `json:"legalActions"`
	Opponents      []engine.OpponentView     `json:"opponents"`
	BettingHistory []rpcHistoryEntry         `json:"bettingHistory"`
}

type rpcHistoryEntry struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type rpcResponse struct {
	Text        string  `json:"text"`
	Tokens      int     `json:"tokens"`
	CostUSD     float64 `json:"costUsd"`
	LatencyMs   int64   `json:"latencyMs"`
}

// actionLine matches one of the five canonical action verbs, case
// insensitively, optionally followed by a dollar total for RAISE.
var actionLine = regexp.MustCompile(`(?i)\b(FOLD|CHECK|CALL|ALL-IN|ALLIN|RAISE)\b\s*\$?\s*([0-9]+(?:\.[0-9]+)?)?`)

// GetDecision calls the model's endpoint and parses its reply. Any failure
// — network error, malformed body, unparseable action text — is returned as
// an error; the engine logs it and applies nothing, leaving the seat to be
// force-folded by the turn's timeout handler.
func (a *HTTPAdapter) GetDecision(ctx context.Context, req engine.DecisionRequest) (engine.Decision, error) {
	endpoint, ok := a.endpoints[req.ModelID]
	if !ok {
		return engine.Decision{}, fmt.Errorf("decision: no endpoint configured for model %s", req.ModelID)
	}

	body := rpcRequest{
		GameID:       req.GameID,
		SeatIndex:    req.SeatIndex,
		HoleCards:    req.HoleCards,
		Board:        req.Board,
		Pot:          req.Pot,
		HandNumber:   req.HandNumber,
		LegalActions: req.Legal,
		Opponents:    req.Opponents,
	}
	for _, e := range req.BettingHistory {
		body.BettingHistory = append(body.BettingHistory, rpcHistoryEntry{Kind: e.Kind(), Text: fmt.Sprintf("%v", e)})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return engine.Decision{}, fmt.Errorf("marshal decision request: %w", err)
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return engine.Decision{}, fmt.Errorf("build decision request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return engine.Decision{}, fmt.Errorf("decision rpc: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return engine.Decision{}, fmt.Errorf("read decision response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return engine.Decision{}, fmt.Errorf("decision rpc: model %s returned status %d: %s", req.ModelID, resp.StatusCode, string(raw))
	}

	var rpc rpcResponse
	if err := json.Unmarshal(raw, &rpc); err != nil {
		return engine.Decision{}, fmt.Errorf("unmarshal decision response: %w", err)
	}

	action, amount, err := parseActionLine(rpc.Text)
	if err != nil {
		return engine.Decision{}, fmt.Errorf("model %s: %w", req.ModelID, err)
	}

	latencyMs := rpc.LatencyMs
	if latencyMs == 0 {
		latencyMs = time.Since(start).Milliseconds()
	}

	return engine.Decision{
		Action:    action,
		Amount:    amount,
		Reasoning: rpc.Text,
		Cost:      rpc.CostUSD,
		LatencyMs: latencyMs,
		Tokens:    rpc.Tokens,
	}, nil
}

// parseActionLine extracts the first recognizable action verb and, for
// RAISE, the dollar total that follows it. It is deliberately permissive
// about surrounding prose — models are expected to wrap the action in
// explanatory text.
func parseActionLine(text string) (engine.Action, int64, error) {
	m := actionLine.FindStringSubmatch(text)
	if m == nil {
		return "", 0, fmt.Errorf("no recognizable action in response: %q", truncate(text, 120))
	}

	verb := strings.ToUpper(m[1])
	var action engine.Action
	switch verb {
	case "FOLD":
		action = engine.ActionFold
	case "CHECK":
		action = engine.ActionCheck
	case "CALL":
		action = engine.ActionCall
	case "RAISE":
		action = engine.ActionRaise
	case "ALL-IN", "ALLIN":
		action = engine.ActionAllIn
	default:
		return "", 0, fmt.Errorf("unrecognized action verb %q", verb)
	}

	var amount int64
	if m[2] != "" {
		f, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return "", 0, fmt.Errorf("parse raise amount %q: %w", m[2], err)
		}
		amount = int64(f)
	}
	if action == engine.ActionRaise && amount == 0 {
		return "", 0, fmt.Errorf("raise with no amount in response: %q", truncate(text, 120))
	}

	return action, amount, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
