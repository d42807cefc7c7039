package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateRoom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/rooms" {
			t.Errorf("Expected /rooms path, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Room{
			Name: req["name"],
			URL:  "https://rooms.example/" + req["name"],
		})
	}))
	defer server.Close()

	s := NewRoomService(server.URL, "test-key", "https://rooms.example")

	room, err := s.CreateRoom(context.Background(), "standup-3-1700000000")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.Name != "standup-3-1700000000" {
		t.Errorf("Expected standup-3-1700000000, got %s", room.Name)
	}
	if room.URL != "https://rooms.example/standup-3-1700000000" {
		t.Errorf("Unexpected room URL %s", room.URL)
	}
}

func TestCreateRoomProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "room quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := NewRoomService(server.URL, "test-key", "https://rooms.example")

	_, err := s.CreateRoom(context.Background(), "standup-3-1700000000")
	if err == nil {
		t.Fatal("Expected error from provider, got nil")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected status in error, got %v", err)
	}
}

func TestCreateRoomLocalMode(t *testing.T) {
	s := NewRoomService("", "", "https://rooms.local/")

	room, err := s.CreateRoom(context.Background(), "standup-3-1700000000")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.URL != "https://rooms.local/standup-3-1700000000" {
		t.Errorf("Unexpected room URL %s", room.URL)
	}
}

func TestRoomName(t *testing.T) {
	name := RoomName("Weekly Stand-Up!", 7)
	if !strings.HasPrefix(name, "weekly-stand-up-7-") {
		t.Errorf("Unexpected room name %s", name)
	}

	name = RoomName("日本語", 9)
	if !strings.HasPrefix(name, "channel-9-") {
		t.Errorf("Expected fallback slug, got %s", name)
	}
}
