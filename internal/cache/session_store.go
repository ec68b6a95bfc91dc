package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cedra_variant_editor/internal/service"
	apperrors "cedra_variant_editor/pkg/errors"
)

const sessionKeyPrefix = "variant_editor:"

// SessionStore garde les sessions d'édition dans Redis ; chaque écriture repousse l'expiration
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *SessionStore) Save(ctx context.Context, session *service.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encodage session %s: %w", session.ID, err)
	}
	return s.client.Set(ctx, sessionKey(session.ID), data, s.ttl).Err()
}

func (s *SessionStore) Load(ctx context.Context, id string) (*service.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &apperrors.ErrNotFound{Resource: "session", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("lecture session %s: %w", id, err)
	}

	var session service.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("décodage session %s: %w", id, err)
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}
