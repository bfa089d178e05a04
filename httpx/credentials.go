package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/oauth"
	"github.com/mbolis/hvac-survey/config"
	"github.com/mbolis/hvac-survey/store"
)

// NewBearerServer issues and refreshes the tokens of the users in users.
func NewBearerServer(users *store.UserStore, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(users), nil)
}

type credentialsVerifier struct {
	users *store.UserStore
}

func CredentialsVerifier(users *store.UserStore) oauth.CredentialsVerifier {
	return &credentialsVerifier{users}
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	return cs.users.Authenticate(r.Context(), username, password)
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.users.StoreToken(context.Background(), credential, tokenID, refreshTokenID)
}

func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.users.ConsumeToken(context.Background(), credential, tokenID, refreshTokenID)
}

// Every user is an administrator.
func (*credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{"roles": "admin"}, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
