package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

// Recorder observes finished calls. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordRPC(method, result string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordRPC(string, string, time.Duration) {}

// Server handles HTTP JSON-RPC requests
type Server struct {
	registry *rpc_types.MethodRegistry
	services *rpc_types.ServiceContainer
	cfg      Config
	limiter  *rate.Limiter
	recorder Recorder
	logger   *zap.Logger
}

// NewServer creates a JSON-RPC server over services. recorder may be nil.
func NewServer(cfg Config, services *rpc_types.ServiceContainer, recorder Recorder, logger *zap.Logger) *Server {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &Server{
		registry: rpc_types.NewMethodRegistry(),
		services: services,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger.With(zap.String("module", "rpc")),
	}
	if cfg.RateLimit > 0 {
		server.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}

	registerAllMethods(server.registry)

	return server
}

// Methods lists the registered method names.
func (s *Server) Methods() []string {
	return s.registry.List()
}

// Request is a JSON-RPC request.
// Format: {"method": "method_name", "params": [{...}]}
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.writeResponse(w, nil, nil, rpc_types.RpcErrorSlowDown("You are placing too much load on the server."))
		return
	}

	if r.Method == http.MethodGet {
		s.handleGetRequest(w, r)
		return
	}
	s.handlePostRequest(w, r)
}

// handleGetRequest serves parameterless queries such as ?command=server_info.
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("command")
	if method == "" {
		method = "server_info"
	}

	ctx := s.newContext(r)
	result, rpcErr := s.executeMethod(r.Context(), method, nil, ctx)
	s.writeResponse(w, map[string]interface{}{"command": method}, result, rpcErr)
}

func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, "invalidParams", rpc_types.RpcINVALID_PARAMS, "Request body too large")
			return
		}
		s.writeError(w, "internal", rpc_types.RpcINTERNAL, "Failed to read request body")
		return
	}

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeError(w, "jsonInvalid", rpc_types.RpcINVALID_PARAMS, "Invalid JSON: "+err.Error())
		return
	}
	if request.Method == "" {
		s.writeError(w, "missingCommand", rpc_types.RpcMISSING_COMMAND, "Missing method field")
		return
	}

	// params is an array holding one object
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx := s.newContext(r)

	var paramsMap map[string]interface{}
	if params != nil {
		if err := json.Unmarshal(params, &paramsMap); err != nil {
			s.writeError(w, "invalidParams", rpc_types.RpcINVALID_PARAMS, "params must be an object")
			return
		}
		if apiVer, ok := paramsMap["api_version"]; ok {
			if ver, ok := apiVer.(float64); ok {
				ctx.ApiVersion = int(ver)
			}
		}
	}

	result, rpcErr := s.executeMethod(r.Context(), request.Method, params, ctx)

	var requestObj map[string]interface{}
	if rpcErr != nil {
		requestObj = paramsMap
		if requestObj == nil {
			requestObj = map[string]interface{}{}
		}
		delete(requestObj, "signature")
		requestObj["command"] = request.Method
	}
	s.writeResponse(w, requestObj, result, rpcErr)
}

func (s *Server) newContext(r *http.Request) *rpc_types.RpcContext {
	return &rpc_types.RpcContext{
		Role:       rpc_types.RoleGuest,
		ApiVersion: rpc_types.DefaultApiVersion,
		ClientIP:   getClientIP(r),
		Services:   s.services,
	}
}

// Execute runs method outside of HTTP, as a guest or an authenticated user.
func (s *Server) Execute(ctx context.Context, method string, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return s.executeMethod(ctx, method, params, &rpc_types.RpcContext{
		Role:       rpc_types.RoleGuest,
		ApiVersion: rpc_types.DefaultApiVersion,
		Services:   s.services,
	})
}

func (s *Server) executeMethod(parent context.Context, method string, params json.RawMessage, ctx *rpc_types.RpcContext) (result interface{}, rpcErr *rpc_types.RpcError) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if rpcErr != nil {
			outcome = rpcErr.ErrorString
		}
		s.recorder.RecordRPC(method, outcome, time.Since(start))
	}()

	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, rpc_types.RpcErrorMethodNotFound(method)
	}

	if !supportsVersion(handler.SupportedApiVersions(), ctx.ApiVersion) {
		return nil, rpc_types.RpcErrorInvalidApiVersion(strconv.Itoa(ctx.ApiVersion))
	}

	if handler.RequiredRole() >= rpc_types.RoleUser {
		if rpcErr := s.authenticate(ctx, method, params); rpcErr != nil {
			return nil, rpcErr
		}
	}

	callCtx, cancel := context.WithTimeout(parent, s.cfg.Timeout)
	defer cancel()
	if ctx.Sequence != nil {
		callCtx = settlement.WithSequence(callCtx, ctx.Account, *ctx.Sequence)
	}
	ctx.Context = callCtx

	result, rpcErr = handler.Handle(ctx, params)
	if rpcErr != nil && rpcErr.Code == rpc_types.RpcINTERNAL {
		s.logger.Warn("rpc call failed",
			zap.String("method", method),
			zap.String("client", ctx.ClientIP),
			zap.String("error", rpcErr.Message))
	}
	return result, rpcErr
}

func supportsVersion(supported []int, version int) bool {
	if len(supported) == 0 {
		return true
	}
	for _, v := range supported {
		if v == version {
			return true
		}
	}
	return false
}

// writeResponse writes a JSON-RPC response:
// result.status is "success" or "error", error fields live inside result.
func (s *Server) writeResponse(w http.ResponseWriter, request map[string]interface{}, result interface{}, rpcErr *rpc_types.RpcError) {
	var resultObj map[string]interface{}

	if rpcErr != nil {
		resultObj = map[string]interface{}{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
		if request != nil {
			resultObj["request"] = request
		}
	} else if m, ok := result.(map[string]interface{}); ok {
		m["status"] = "success"
		resultObj = m
	} else {
		resultObj = map[string]interface{}{
			"status": "success",
			"data":   result,
		}
	}

	s.write(w, map[string]interface{}{"result": resultObj})
}

func (s *Server) writeError(w http.ResponseWriter, token string, code int, message string) {
	s.writeResponse(w, nil, nil, rpc_types.NewRpcError(code, token, token, message))
}

func (s *Server) write(w http.ResponseWriter, response map[string]interface{}) {
	data, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("failed to marshal response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
