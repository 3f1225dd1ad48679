package sinum_test

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// controllerServer implements a fake Sinum controller. Its endpoint paths,
// response envelopes and token field are configurable so tests can cover the
// shape variants found across firmware revisions.
type controllerServer struct {
	loginPath  string // candidate that answers; all others return 404
	roomsPath  string
	tokenField string // "data.token", "token", "access_token" or "session_id"
	envelope   string // "bare", "data" or "named" ({"rooms": ...} / {"devices": ...})
	token      string
	expiresIn  int64

	rejectCredentials bool
	rejectTokens      atomic.Int32 // number of authorized calls to reject with 401
	failDevices       bool
	failRooms         bool
	wantBearer        bool

	rooms   []map[string]any
	sbus    []map[string]any
	virtual []map[string]any

	loginAttempts atomic.Int32
	lastAuth      atomic.Value // Authorization header of the last GET
}

func newControllerServer() *controllerServer {
	return &controllerServer{
		loginPath:  "/api/v1/auth/login",
		roomsPath:  "/api/v1/rooms",
		tokenField: "data.token",
		envelope:   "bare",
		token:      "good-token",
		wantBearer: true,
		rooms: []map[string]any{
			{"id": 1, "name": "Living"},
			{"id": 2, "name": "Bedroom"},
		},
		sbus: []map[string]any{
			{"type": "temperature_sensor", "room_id": 1, "value": 223},
			{"type": "humidity_sensor", "room_id": 1, "value": 381},
			{"type": "temperature_sensor", "room_id": 2, "value": 195},
		},
		virtual: []map[string]any{
			{"room_id": 1, "state": true, "mode": "heating"},
		},
	}
}

func (s *controllerServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodPost {
		s.serveLogin(w, req)
		return
	}
	if !s.authorized(req) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch req.URL.Path {
	case s.roomsPath:
		if s.failRooms {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.respond(w, s.rooms, "rooms")
	case "/api/v1/devices":
		if s.failDevices {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		switch req.URL.Query().Get("class") {
		case "sbus":
			s.respond(w, s.sbus, "devices")
		case "virtual":
			s.respond(w, s.virtual, "devices")
		default:
			http.Error(w, "unknown device class", http.StatusBadRequest)
		}
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *controllerServer) serveLogin(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != s.loginPath {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.loginAttempts.Add(1)

	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&creds); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.rejectCredentials {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	response := make(map[string]any)
	switch s.tokenField {
	case "data.token":
		data := map[string]any{"token": s.token}
		if s.expiresIn > 0 {
			data["expires_in"] = s.expiresIn
		}
		response["data"] = data
	default:
		response[s.tokenField] = s.token
		if s.expiresIn > 0 {
			response["expires_in"] = s.expiresIn
		}
	}
	_ = json.NewEncoder(w).Encode(response)
}

func (s *controllerServer) authorized(req *http.Request) bool {
	header := req.Header.Get("Authorization")
	s.lastAuth.Store(header)

	if s.rejectTokens.Load() > 0 {
		s.rejectTokens.Add(-1)
		return false
	}

	want := s.token
	if s.wantBearer {
		want = "Bearer " + s.token
	}
	return header == want
}

func (s *controllerServer) respond(w http.ResponseWriter, records []map[string]any, field string) {
	w.Header().Set("Content-Type", "application/json")
	switch s.envelope {
	case "data":
		_ = json.NewEncoder(w).Encode(map[string]any{"data": records})
	case "named":
		_ = json.NewEncoder(w).Encode(map[string]any{field: records})
	default:
		_ = json.NewEncoder(w).Encode(records)
	}
}
