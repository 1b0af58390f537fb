// Tumble room registration
//
// These endpoints only attach display names and question sets to a room.
// Play itself happens over /ws, where any code works as a room key whether
// or not it was created here.

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Seednode/tumble/games/tower"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const maxBodySize = 64 << 10

type createRoomRequest struct {
	PlayerName string   `json:"playerName"`
	Questions  []string `json:"questions"`
}

type createRoomResponse struct {
	RoomCode string `json:"roomCode"`
}

type joinRoomRequest struct {
	RoomCode   string   `json:"roomCode"`
	PlayerName string   `json:"playerName"`
	Questions  []string `json:"questions"`
}

type joinRoomResponse struct {
	Success bool `json:"success"`
}

type roomInfoResponse struct {
	Player1 *tower.Participant `json:"player1"`
	Player2 *tower.Participant `json:"player2"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any, errs chan<- error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		errs <- err
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	return json.NewDecoder(r.Body).Decode(v)
}

func serveCreateRoom(cfg *Config, registry *tower.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req createRoomRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"}, errs)
			return
		}

		room, err := registry.Create(tower.Participant{
			Name:      req.PlayerName,
			Questions: req.Questions,
		})
		if err != nil {
			writeJSON(cfg, w, http.StatusInternalServerError, errorResponse{Error: "Unable to create room"}, errs)
			return
		}

		logf(cfg, "GAMES: Created room %s for %q from %s", room.Code(), req.PlayerName, realIP(r))

		writeJSON(cfg, w, http.StatusOK, createRoomResponse{RoomCode: room.Code()}, errs)
	}
}

func serveJoinRoom(cfg *Config, registry *tower.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req joinRoomRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"}, errs)
			return
		}

		room, err := registry.Register(req.RoomCode, tower.Participant{
			Name:      req.PlayerName,
			Questions: req.Questions,
		})
		switch {
		case errors.Is(err, tower.ErrRoomNotFound):
			writeJSON(cfg, w, http.StatusNotFound, errorResponse{Error: "Room not found"}, errs)
			return
		case errors.Is(err, tower.ErrRoomFull):
			writeJSON(cfg, w, http.StatusBadRequest, errorResponse{Error: "Room already full"}, errs)
			return
		case err != nil:
			writeJSON(cfg, w, http.StatusInternalServerError, errorResponse{Error: err.Error()}, errs)
			return
		}

		logf(cfg, "GAMES: %q joined room %s from %s", req.PlayerName, room.Code(), realIP(r))

		writeJSON(cfg, w, http.StatusOK, joinRoomResponse{Success: true}, errs)
	}
}

func serveRoomInfo(cfg *Config, registry *tower.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, ok := registry.Lookup(ps.ByName("code"))
		if !ok {
			writeJSON(cfg, w, http.StatusNotFound, errorResponse{Error: "Room not found"}, errs)
			return
		}

		participants := room.Participants()

		writeJSON(cfg, w, http.StatusOK, roomInfoResponse{
			Player1: participants[tower.First],
			Player2: participants[tower.Second],
		}, errs)
	}
}

// serveRoomQR renders a PNG QR code pointing at the room's page, so the
// second player can join from a phone.
func serveRoomQR(cfg *Config, registry *tower.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")
		if _, ok := registry.Lookup(code); !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}

// registerTowerGame sets up routes so that:
//   - POST $prefix/create-room  → new room, caller is player 1
//   - POST $prefix/join-room    → caller becomes player 2
//   - GET  $prefix/room/:code   → both players' names and questions
//   - GET  $prefix/room/:code/qr → PNG QR code for the room URL
//   - GET  $prefix/ws           → websocket for play
func registerTowerGame(cfg *Config, mux *httprouter.Router, registry *tower.Registry, gateway *tower.Gateway, errs chan<- error) {
	mux.POST(cfg.prefix+"/create-room", serveCreateRoom(cfg, registry, errs))
	mux.POST(cfg.prefix+"/join-room", serveJoinRoom(cfg, registry, errs))
	mux.GET(cfg.prefix+"/room/:code", serveRoomInfo(cfg, registry, errs))
	mux.GET(cfg.prefix+"/room/:code/qr", serveRoomQR(cfg, registry, errs))
	mux.HandlerFunc("GET", cfg.prefix+"/ws", gateway.ServeWS)
}
