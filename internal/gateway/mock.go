package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockGateway is an in-memory PaymentGateway for development and tests. It
// records every created session and can be forced to fail.
type MockGateway struct {
	mu       sync.Mutex
	sessions []CreateSessionRequest
	FailWith error
}

// NewMockGateway creates a new mock payment gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// CreateCheckoutSession returns a deterministic fake session, or FailWith
// when configured.
func (g *MockGateway) CreateCheckoutSession(_ context.Context, req *CreateSessionRequest) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailWith != nil {
		return nil, g.FailWith
	}

	g.sessions = append(g.sessions, *req)
	id := "cs_mock_" + uuid.New().String()
	return &Session{
		ID:  id,
		URL: "https://pay.example.test/session/" + id,
	}, nil
}

// Sessions returns a copy of all recorded session requests.
func (g *MockGateway) Sessions() []CreateSessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]CreateSessionRequest, len(g.sessions))
	copy(out, g.sessions)
	return out
}
