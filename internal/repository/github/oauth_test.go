package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchanger_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good" || r.PostForm.Get("client_id") != "cid" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gho_x","token_type":"bearer","scope":"notifications,repo"}`))
	}))
	defer srv.Close()

	ex := NewExchanger(OAuthConfig{ClientID: "cid", ClientSecret: "sec", TokenURL: srv.URL})

	tok, err := ex.Exchange(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "gho_x", tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, "notifications,repo", tok.Scope)

	_, err = ex.Exchange(context.Background(), "bad")
	require.Error(t, err)

	_, err = ex.Exchange(context.Background(), "")
	require.Error(t, err)
}
