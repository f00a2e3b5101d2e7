package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"livechat-backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const tokenDuration = 24 * time.Hour

// AgentAuthStore is the slice of the agent repository the auth service
// needs.
type AgentAuthStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Agent, error)
	GetByID(ctx context.Context, id int) (*model.Agent, error)
	SetStatus(ctx context.Context, id int, status string) error
	Create(ctx context.Context, name, email, passwordHash string, maxConcurrentChats int) (*model.Agent, error)
}

type AuthService struct {
	agents    AgentAuthStore
	pub       Publisher
	jwtSecret []byte
}

func NewAuthService(agents AgentAuthStore, pub Publisher, jwtSecret string) *AuthService {
	return &AuthService{agents: agents, pub: pub, jwtSecret: []byte(jwtSecret)}
}

// Login checks credentials, flips the agent online and issues a 24h token.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	agent, err := s.agents.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(agent.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.agents.SetStatus(ctx, agent.ID, model.AgentOnline); err != nil {
		return nil, fmt.Errorf("set agent online: %w", err)
	}
	agent.Status = model.AgentOnline

	token, err := s.signToken(agent)
	if err != nil {
		return nil, err
	}

	if s.pub != nil {
		s.pub.Publish(model.EventAgentStatusChanged, model.AgentStatusEvent{
			AgentID: agent.ID, Status: model.AgentOnline, Timestamp: time.Now().UTC(),
		})
	}

	return &model.LoginResponse{Token: token, Agent: agent}, nil
}

// Logout marks the agent offline. An unparseable token is not an error:
// the dashboard clears its copy regardless.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	agentID, _, _, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil
	}
	if err := s.agents.SetStatus(ctx, agentID, model.AgentOffline); err != nil {
		return err
	}
	if s.pub != nil {
		s.pub.Publish(model.EventAgentStatusChanged, model.AgentStatusEvent{
			AgentID: agentID, Status: model.AgentOffline, Timestamp: time.Now().UTC(),
		})
	}
	return nil
}

// Verify resolves the token back to the current agent row.
func (s *AuthService) Verify(ctx context.Context, tokenString string) (*model.Agent, error) {
	agentID, _, _, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return agent, nil
}

// AgentByID loads the agent row behind an already-verified token.
func (s *AuthService) AgentByID(ctx context.Context, id int) (*model.Agent, error) {
	return s.agents.GetByID(ctx, id)
}

// Register creates a new agent account.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterAgentRequest) (*model.Agent, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.agents.Create(ctx, strings.TrimSpace(req.Name), strings.TrimSpace(strings.ToLower(req.Email)), string(hash), req.MaxConcurrentChats)
}

// HashPassword is shared with the agent-management handler's
// change-password flow.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func (s *AuthService) ValidateToken(tokenString string) (agentID int, name, email string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", "", ErrInvalidToken
	}

	id, _ := claims["agent_id"].(float64)
	name, _ = claims["name"].(string)
	email, _ = claims["email"].(string)
	if id == 0 {
		return 0, "", "", ErrInvalidToken
	}
	return int(id), name, email, nil
}

func (s *AuthService) signToken(agent *model.Agent) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"agent_id": agent.ID,
		"email":    agent.Email,
		"name":     agent.Name,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
