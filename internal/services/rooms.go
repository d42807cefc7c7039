package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Room is a provider-allocated voice/video room.
type Room struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RoomService wraps the external call provider's room API. Only the
// first join of a channel session reaches out here; all later presence
// tracking is local bookkeeping. With no API URL configured the service
// runs in local mode and fabricates room URLs under the room domain,
// which keeps dev and test setups self-contained.
type RoomService struct {
	apiURL string
	apiKey string
	domain string
	client *http.Client
}

func NewRoomService(apiURL, apiKey, domain string) *RoomService {
	return &RoomService{
		apiURL: apiURL,
		apiKey: apiKey,
		domain: strings.TrimSuffix(domain, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

var roomNameSanitizer = regexp.MustCompile(`[^a-z0-9-]+`)

// RoomName derives a collision-free room name from the channel name,
// its id and the current time.
func RoomName(channelName string, channelID uint) string {
	slug := roomNameSanitizer.ReplaceAllString(strings.ToLower(channelName), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "channel"
	}
	return fmt.Sprintf("%s-%d-%d", slug, channelID, time.Now().Unix())
}

// CreateRoom allocates a room with the provider. The call is bounded by
// both the request context and the client timeout; failures propagate
// to the caller, no retries.
func (s *RoomService) CreateRoom(ctx context.Context, name string) (*Room, error) {
	if s.apiURL == "" {
		return &Room{Name: name, URL: s.domain + "/" + name}, nil
	}

	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/rooms", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("room provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("room provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var room Room
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return nil, fmt.Errorf("failed to decode room provider response: %w", err)
	}
	if room.Name == "" {
		room.Name = name
	}
	if room.URL == "" {
		room.URL = s.domain + "/" + room.Name
	}
	return &room, nil
}
