package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationsURL(t *testing.T) {
	assert.Equal(t,
		"https://api.github.com/notifications?participating=true",
		NotificationsURL("https://api.github.com/", time.Time{}))

	since := time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("X", 3*3600))
	assert.Equal(t,
		"https://api.github.com/notifications?participating=true&since=2024-05-01T09%3A30%3A00Z",
		NotificationsURL("https://api.github.com", since))
}

func TestClient_ListNotificationsSendsTokenAndQuery(t *testing.T) {
	var gotAuth, gotQuery, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"7","reason":"mention","unread":true,"subject":{"title":"x","type":"Issue"}}]`))
	}))
	defer srv.Close()

	c := NewFactory(Config{BaseURL: srv.URL}, nil).ForToken("tok")
	ns, err := c.ListNotifications(context.Background(), time.Time{})
	require.NoError(t, err)

	require.Len(t, ns, 1)
	assert.Equal(t, "7", ns[0].ID)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "/notifications", gotPath)
	assert.Equal(t, "participating=true", gotQuery)
}

func TestClient_StatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/denied" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewFactory(Config{BaseURL: srv.URL}, nil).ForToken("tok")

	_, err := c.Resolve(context.Background(), srv.URL+"/denied")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.ListNotifications(context.Background(), time.Time{})
	require.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "boom", se.Body)
}

func TestClient_ResolveReturnsRawJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/o/r/issues/1":
			_, _ = w.Write([]byte(`{"number":1}`))
		default:
			_, _ = w.Write([]byte(`<html>`))
		}
	}))
	defer srv.Close()

	c := NewFactory(Config{BaseURL: srv.URL}, nil).ForToken("tok")

	raw, err := c.Resolve(context.Background(), srv.URL+"/repos/o/r/issues/1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"number":1}`, string(raw))

	_, err = c.Resolve(context.Background(), srv.URL+"/html")
	require.Error(t, err)

	_, err = c.Resolve(context.Background(), "/relative")
	require.Error(t, err)
}
