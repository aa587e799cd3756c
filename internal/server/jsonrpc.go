package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/copyleftdev/binpack/internal/binpacking"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// GenerateRequest asks for random item sizes.
type GenerateRequest struct {
	NumItems    int    `json:"num_items"`
	MaxItemSize int    `json:"max_item_size"`
	Seed        *int64 `json:"seed,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, codeParseError, "Parse error", nil)
		return
	}

	if request.JSONRPC != "2.0" {
		s.respondWithError(w, codeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "binpacking.solve":
		var params SolveRequest
		if err := decodeParams(request.Params, &params); err != nil {
			s.respondWithError(w, codeInvalidParams, err.Error(), request.ID)
			return
		}
		result, err = s.solve(&params, s.requestLogger(r))
	case "binpacking.generate":
		var params GenerateRequest
		if err := decodeParams(request.Params, &params); err != nil {
			s.respondWithError(w, codeInvalidParams, err.Error(), request.ID)
			return
		}
		result, err = s.generate(&params)
	default:
		s.respondWithError(w, codeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		code := codeServerError
		if statusFor(err) == http.StatusBadRequest {
			code = codeInvalidParams
		}
		s.respondWithError(w, code, err.Error(), request.ID)
		return
	}

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// decodeParams accepts params as an object or as a one-element array
// holding the object.
func decodeParams(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fmt.Errorf("missing required parameters")
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("invalid parameter format: %v", err)
		}
		if len(list) != 1 {
			return fmt.Errorf("expected one parameter object, got %d", len(list))
		}
		raw = list[0]
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid parameter format: %v", err)
	}
	return nil
}

// generate handles binpacking.generate.
func (s *Server) generate(req *GenerateRequest) (interface{}, error) {
	if req.NumItems > s.cfg.Solver.MaxItems {
		return nil, fmt.Errorf("%w: %d items exceed the limit of %d", errBadRequest, req.NumItems, s.cfg.Solver.MaxItems)
	}
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	sizes, err := binpacking.NewGenerator(rand.New(rand.NewSource(seed))).Generate(req.NumItems, req.MaxItemSize)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"item_sizes": sizes,
		"seed":       seed,
	}, nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("RPC error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
