package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationURL_IncludesStateAndScopes(t *testing.T) {
	p := New(Config{
		ClientID: "client-123",
		AuthURL:  "https://provider.example/authorize",
		Scopes:   []string{"openid", "email"},
	})

	u := p.AuthorizationURL("https://app.example/callback", "nonce-abc")

	assert.Contains(t, u, "https://provider.example/authorize?")
	assert.Contains(t, u, "client_id=client-123")
	assert.Contains(t, u, "state=nonce-abc")
	assert.Contains(t, u, "scope=openid+email")
}

func TestExchange_ResolvesProviderUserIDAndEmail(t *testing.T) {
	userInfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"provider-user-1","email":"person@example.com"}`))
	}))
	defer userInfo.Close()

	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "the-code", r.FormValue("code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"test-access-token","token_type":"bearer"}`))
	}))
	defer token.Close()

	p := New(Config{
		ClientID:     "client-123",
		ClientSecret: "secret",
		TokenURL:     token.URL,
		UserInfoURL:  userInfo.URL,
	})

	id, email, err := p.Exchange(context.Background(), "the-code", "https://app.example/callback")
	require.NoError(t, err)
	assert.Equal(t, "provider-user-1", id)
	assert.Equal(t, "person@example.com", email)
}

func TestExchange_MissingAccessTokenIsError(t *testing.T) {
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer token.Close()

	p := New(Config{TokenURL: token.URL})

	_, _, err := p.Exchange(context.Background(), "code", "https://app.example/callback")
	assert.Error(t, err)
}
