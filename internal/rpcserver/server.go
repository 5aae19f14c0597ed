package rpcserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server exposes a Dispatcher over HTTP+JSON and websocket transports.
// Both share the exact same dispatch path; the only difference is how
// a Request arrives and a Reply leaves.
type Server struct {
	dispatcher *Dispatcher
	log        *zap.Logger
	upgrader   websocket.Upgrader
}

// NewServer builds a Server dispatching onto d.
func NewServer(d *Dispatcher, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		dispatcher: d,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// This is a vault daemon spoken to by a co-located CLI/service,
			// not a browser; same-origin checks don't apply here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gorilla/mux router: POST /rpc for one-shot
// HTTP+JSON calls, GET /ws for the persistent duplex socket.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/rpc", s.handleHTTP).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWebsocket).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, failure(0, "malformed request: "+err.Error()))
		return
	}

	reply := s.dispatcher.Dispatch(req)
	writeJSON(w, http.StatusOK, reply)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleWebsocket implements the duplex transport: every text/binary
// message on the socket is decoded as one Request and answered with
// one Reply on the same connection, until the client closes it.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Time{})
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		reply := s.dispatcher.Dispatch(req)
		if err := conn.WriteJSON(reply); err != nil {
			s.log.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}
