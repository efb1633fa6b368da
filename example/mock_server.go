package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// libraryStats holds the drifting numbers of one mock library.
type libraryStats struct {
	totalItems    int
	totalSize     int64
	totalDuration float64
}

// mockState tracks the dynamic parts of the fake Audiobookshelf server.
type mockState struct {
	openSessions int
	aliceActive  bool
	libraries    map[string]*libraryStats
	nextChangeAt time.Time
}

// advance mutates the state once the scheduled change time is reached:
// the session count is re-rolled, alice may log off, and a random
// library gains an item. Caller must hold the lock.
func (s *mockState) advance() {
	if time.Now().Before(s.nextChangeAt) {
		return
	}
	s.openSessions = rand.Intn(4)
	s.aliceActive = rand.Intn(2) == 0

	for _, lib := range s.libraries {
		lib.totalItems++
		lib.totalSize += 300 << 20 // ~300 MB per new item
		lib.totalDuration += 2700  // 45 minutes
		break
	}

	// next change in 20-60 seconds
	s.nextChangeAt = time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
	slog.Info("mock activity change",
		"open_sessions", s.openSessions,
		"alice_active", s.aliceActive)
}

// StartMockAudiobookshelf runs a fake Audiobookshelf API whose session
// and library numbers drift every 20-60 seconds. Requests must carry the
// given API token as a bearer header. Call this in a goroutine before
// starting ShelfWatch.
func StartMockAudiobookshelf(addr, token string) {
	var mu sync.Mutex
	state := &mockState{
		aliceActive: true,
		libraries: map[string]*libraryStats{
			"lib-audiobooks": {totalItems: 42, totalSize: 48 << 30, totalDuration: 520 * 3600},
			"lib-podcasts":   {totalItems: 128, totalSize: 9 << 30, totalDuration: 210 * 3600},
		},
	}

	mux := http.NewServeMux()
	handle := func(path string, fn func(w http.ResponseWriter, r *http.Request)) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fn(w, r)
		})
	}
	writeJSON := func(w http.ResponseWriter, v any) {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	}

	handle("/api/libraries", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"libraries": []any{
				map[string]any{"id": "lib-audiobooks", "name": "Audiobooks", "mediaType": "book", "provider": "audible"},
				map[string]any{"id": "lib-podcasts", "name": "Podcasts", "mediaType": "podcast", "provider": "itunes"},
			},
		})
	})

	for id := range state.libraries {
		id := id
		handle(fmt.Sprintf("/api/libraries/%s/stats", id), func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			state.advance()
			lib := state.libraries[id]
			resp := map[string]any{
				"totalItems":    lib.totalItems,
				"totalSize":     lib.totalSize,
				"totalDuration": lib.totalDuration,
			}
			mu.Unlock()
			writeJSON(w, resp)
		})
	}

	handle("/api/users", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		state.advance()
		aliceActive := state.aliceActive
		mu.Unlock()
		writeJSON(w, map[string]any{
			"users": []any{
				map[string]any{"id": "usr_alice", "username": "alice", "isActive": aliceActive, "token": "alice-token"},
				map[string]any{"id": "usr_bob", "username": "bob", "isActive": false, "token": "bob-token"},
				map[string]any{"id": "usr_hass", "username": "hass", "isActive": true, "token": "hass-token"},
			},
		})
	})

	handle("/api/users/online", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		state.advance()
		sessions := make([]any, 0, state.openSessions)
		for i := 0; i < state.openSessions; i++ {
			sessions = append(sessions, map[string]any{
				"id":        fmt.Sprintf("play_%d", i+1),
				"userId":    "usr_alice",
				"mediaType": "book",
			})
		}
		mu.Unlock()
		writeJSON(w, map[string]any{"openSessions": sessions, "usersOnline": []any{}})
	})

	handle("/api/authorize", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"user":           map[string]any{"id": "usr_alice", "username": "alice", "token": "alice-token"},
			"serverSettings": map[string]any{"version": "2.10.1"},
		})
	})

	// extra endpoint for the custom sensor in main.go
	handle("/api/backups", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"total": 4,
			"backups": []any{
				map[string]any{"id": "bk_1", "createdAt": "2026-08-22T03:00:00Z"},
				map[string]any{"id": "bk_2", "createdAt": "2026-08-23T03:00:00Z"},
				map[string]any{"id": "bk_3", "createdAt": "2026-08-24T03:00:00Z"},
				map[string]any{"id": "bk_4", "createdAt": "2026-08-25T03:00:00Z"},
			},
		})
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
