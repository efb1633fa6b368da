// Standalone mock Audiobookshelf server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/shelfwatch serve -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"
)

const token = "demo-token"

func main() {
	fmt.Println("Mock Audiobookshelf server starting on :13378")
	fmt.Println("Session and library numbers drift every 20-60 seconds")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		mu       sync.Mutex
		sessions = 1
		items    = 42
		size     = int64(48) << 30
		duration = float64(520 * 3600)
		changeAt = time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
	)

	advance := func() {
		if time.Now().Before(changeAt) {
			return
		}
		sessions = rand.Intn(4)
		items++
		size += 300 << 20
		duration += 2700
		changeAt = time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
		slog.Info("mock activity change", "open_sessions", sessions, "total_items", items)
	}

	handle := func(path string, fn func(w http.ResponseWriter, r *http.Request)) {
		http.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fn(w, r)
		})
	}

	handle("/api/libraries", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"libraries": []any{
				map[string]any{"id": "lib-audiobooks", "name": "Audiobooks", "mediaType": "book", "provider": "audible"},
			},
		})
	})

	handle("/api/libraries/lib-audiobooks/stats", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		advance()
		resp := map[string]any{"totalItems": items, "totalSize": size, "totalDuration": duration}
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(resp)
	})

	handle("/api/users", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []any{
				map[string]any{"id": "usr_alice", "username": "alice", "isActive": true, "token": "alice-token"},
				map[string]any{"id": "usr_hass", "username": "hass", "isActive": true, "token": "hass-token"},
			},
		})
	})

	handle("/api/users/online", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		advance()
		open := make([]any, 0, sessions)
		for i := 0; i < sessions; i++ {
			open = append(open, map[string]any{"id": fmt.Sprintf("play_%d", i+1), "userId": "usr_alice"})
		}
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"openSessions": open, "usersOnline": []any{}})
	})

	handle("/api/authorize", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":           map[string]any{"id": "usr_alice", "username": "alice", "token": "alice-token"},
			"serverSettings": map[string]any{"version": "2.10.1"},
		})
	})

	if err := http.ListenAndServe(":13378", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
