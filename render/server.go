package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultServerURL is the public PlantUML server.
const DefaultServerURL = "https://www.plantuml.com/plantuml"

// Server renders through the PNG endpoint of a PlantUML server.
type Server struct {
	BaseURL string
	Client  *http.Client
}

func NewServer(baseURL string) *Server {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	return &Server{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Server) ID() string {
	return "server:" + s.BaseURL
}

// URL returns the image address for src.
func (s *Server) URL(src []byte) (string, error) {
	enc, err := Encode(src)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s.BaseURL, "/") + "/png/" + enc, nil
}

func (s *Server) RenderPNG(ctx context.Context, src []byte) ([]byte, error) {
	url, err := s.URL(src)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plantuml server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("plantuml server: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyOutput
	}
	return data, nil
}
