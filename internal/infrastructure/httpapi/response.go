package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"web-agent/internal/domain/entity"
)

const maxRequestBodyBytes = 1 << 20

const (
	errorCodeInvalidRequest = "invalid_request"
	errorCodeNotFound       = "not_found"
	errorCodeMethod         = "method_not_allowed"
	errorCodeRuntime        = "runtime_error"
)

var errInvalidRequest = errors.New("invalid request")

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

type agentRequest struct {
	Goal  string
	Steps int
}

func writeInvalidRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, errorCodeInvalidRequest, message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiErrorResponse{
		Error: apiError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeAgentRequest reads {goal, steps?}. Members are inspected one by one
// so a malformed steps value falls back to the default instead of failing.
func decodeAgentRequest(r *http.Request) (agentRequest, error) {
	if r.Body == nil {
		return agentRequest{}, fmt.Errorf("%w: request body is required", errInvalidRequest)
	}

	var body map[string]json.RawMessage
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return agentRequest{}, fmt.Errorf("%w: request body is required", errInvalidRequest)
		}
		return agentRequest{}, fmt.Errorf("%w: invalid JSON body: %v", errInvalidRequest, err)
	}
	if body == nil {
		return agentRequest{}, fmt.Errorf("%w: request body must be a JSON object", errInvalidRequest)
	}

	var goal string
	if raw, ok := body["goal"]; !ok || json.Unmarshal(raw, &goal) != nil || strings.TrimSpace(goal) == "" {
		return agentRequest{}, fmt.Errorf("%w: goal must be a non-empty string", errInvalidRequest)
	}

	steps := entity.DefaultStepBudget
	if raw, ok := body["steps"]; ok {
		var n *float64
		if json.Unmarshal(raw, &n) == nil && n != nil {
			steps = clampStepsNumber(*n)
		}
	}

	return agentRequest{Goal: goal, Steps: steps}, nil
}

// clampStepsNumber rounds fractional budgets up before clamping.
func clampStepsNumber(n float64) int {
	n = math.Ceil(n)
	if n < entity.MinStepBudget {
		return entity.MinStepBudget
	}
	if n > entity.MaxStepBudget {
		return entity.MaxStepBudget
	}
	return int(n)
}
