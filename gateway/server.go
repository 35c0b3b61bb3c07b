package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/tobert/hootenanny/log"
)

// SessionHeader is the MCP Streamable HTTP session header name.
const SessionHeader = "Mcp-Session-Id"

// ServerInfo is what `initialize` advertises about this gateway.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Server binds the gateway's three surfaces: MCP Streamable HTTP, the SSE
// legacy transport, and health/OAuth-discovery 404 shims.
type Server struct {
	info       ServerInfo
	sessions   *SessionStore
	catalog    *Catalog
	dispatcher *Dispatcher
	logger     log.Logger
}

// NewServer wires a chi-based http.Handler implementing spec.md §4.6.
func NewServer(info ServerInfo, sessions *SessionStore, catalog *Catalog, dispatcher *Dispatcher, logger log.Logger) http.Handler {
	s := &Server{info: info, sessions: sessions, catalog: catalog, dispatcher: dispatcher, logger: logger}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", SessionHeader, "traceparent"},
		AllowCredentials: false,
	}))

	r.Post("/", s.handleStreamablePost)
	r.Delete("/", s.handleStreamableDelete)
	r.Get("/sse", s.handleSSE)
	r.Post("/message", s.handleLegacyMessage)

	// Health and OAuth-discovery shims: 404 declares "no auth required"
	// rather than advertising an auth flow the gateway doesn't implement.
	r.Get("/.well-known/oauth-authorization-server", notFound)
	r.Get("/.well-known/oauth-protected-resource", notFound)
	r.Get("/health", s.handleHealth)

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "sessions": s.sessions.Count()})
}

// rpcRequest is a minimal JSON-RPC 2.0 envelope, the wire shape MCP's
// Streamable HTTP transport carries over POST /.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleStreamablePost(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRPCError(w, nil, -32700, "parse error")
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	var sess *Session
	if req.Method == "initialize" {
		sess = s.sessions.Create()
		w.Header().Set(SessionHeader, sess.ID)
	} else {
		var err error
		sess, err = s.sessions.Get(sessionID)
		if err != nil {
			writeRPCError(w, req.ID, -32001, "session not found")
			return
		}
	}

	result, rpcErr := s.dispatchMethod(r, sess, req)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}
	writeRPCResult(w, req.ID, result)
}

func (s *Server) handleStreamableDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if err := s.sessions.Delete(sessionID); err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) dispatchMethod(r *http.Request, sess *Session, req rpcRequest) (interface{}, *rpcError) {
	switch req.Method {
	case "initialize":
		sess.Initialized = true
		if err := s.catalog.Refresh(r.Context()); err != nil {
			s.logger.Warn("gateway: catalog refresh failed")
		}
		return map[string]interface{}{
			"protocolVersion": "2025-06-18",
			"serverInfo":      s.info,
			"capabilities":    map[string]interface{}{"tools": map[string]interface{}{}},
		}, nil
	case "tools/list":
		return map[string]interface{}{"tools": s.catalog.List()}, nil
	case "tools/call":
		return s.handleToolsCall(r, sess, req.Params)
	default:
		return nil, &rpcError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func (s *Server) handleToolsCall(r *http.Request, sess *Session, raw json.RawMessage) (interface{}, *rpcError) {
	var params toolsCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &rpcError{Code: -32602, Message: "invalid params"}
	}
	traceparent := r.Header.Get("traceparent")
	result, err := s.dispatcher.Call(r.Context(), params.Name, params.Arguments, traceparent)
	if err != nil {
		return nil, &rpcError{Code: -32000, Message: err.Error()}
	}
	return result, nil
}

func writeRPCResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func writeRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}})
}

// handleSSE serves the MCP SSE legacy transport: GET /sse creates a new
// session, announces its id in an `endpoint` event, and streams that
// session's events until the client disconnects.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess := s.sessions.Create()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: endpoint\ndata: /message?sessionId=%s\n\n", sess.ID)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			_ = s.sessions.Delete(sess.ID)
			return
		case ev, ok := <-sess.Events():
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, ev.Data)
			flusher.Flush()
		}
	}
}

// handleLegacyMessage accepts a `POST /message?sessionId=…` request from
// an SSE-legacy client and dispatches it the same way the Streamable HTTP
// POST / handler does.
func (s *Server) handleLegacyMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req rpcRequest
	if jsonErr := json.NewDecoder(r.Body).Decode(&req); jsonErr != nil {
		writeRPCError(w, nil, -32700, "parse error")
		return
	}
	result, rpcErr := s.dispatchMethod(r, sess, req)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}
	writeRPCResult(w, req.ID, result)
}
