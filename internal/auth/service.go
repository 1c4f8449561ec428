package auth

import (
	"context"
	"errors"
	"time"

	"github.com/nexus-hr/treasury/internal/actor"
)

// ErrInvalidToken covers malformed, forged and expired tokens alike.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified content of an access token.
type Claims struct {
	Subject   string
	Username  string
	Role      string
	ExpiresAt time.Time
}

// Token is an issued access token.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type Service struct {
	actors *actor.Service
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(actors *actor.Service, secret string, ttl time.Duration) *Service {
	return &Service{actors: actors, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Login checks operator credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (actor.Actor, Token, error) {
	a, err := s.actors.Authenticate(ctx, username, password)
	if err != nil {
		return actor.Actor{}, Token{}, err
	}
	now := s.now()
	signed, err := SignHS256(map[string]any{
		"sub":  a.ID,
		"name": a.Username,
		"role": a.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}, s.secret)
	if err != nil {
		return actor.Actor{}, Token{}, err
	}
	return a, Token{AccessToken: signed, ExpiresIn: int64(s.ttl.Seconds())}, nil
}

// Verify validates signature and expiry.
func (s *Service) Verify(token string) (Claims, error) {
	raw, err := ParseAndVerifyHS256(token, s.secret)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := raw["sub"].(string)
	exp, _ := raw["exp"].(float64)
	if sub == "" || exp == 0 {
		return Claims{}, ErrInvalidToken
	}
	expiresAt := time.Unix(int64(exp), 0)
	if !s.now().Before(expiresAt) {
		return Claims{}, ErrInvalidToken
	}
	name, _ := raw["name"].(string)
	role, _ := raw["role"].(string)
	return Claims{Subject: sub, Username: name, Role: role, ExpiresAt: expiresAt}, nil
}
