package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/identity"
)

func TestHTTPProfileClient_CreateProfile(t *testing.T) {
	accountID := uuid.New()

	request := identity.CreateProfileRequest{
		AccountID: accountID,
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		Role:      identity.RoleUser,
	}

	t.Run("posts the profile payload", func(t *testing.T) {
		var received map[string]any

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		client := identity.NewHTTPProfileClient(srv.URL, identity.WithProfileLogger(testLogger{}))

		err := client.CreateProfile(context.Background(), request)
		require.NoError(t, err)

		assert.Equal(t, accountID.String(), received["id"])
		assert.Equal(t, "ada@example.com", received["email"])
	})

	t.Run("non-2xx response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := identity.NewHTTPProfileClient(srv.URL, identity.WithProfileLogger(testLogger{}))

		err := client.CreateProfile(context.Background(), request)
		assert.Error(t, err)
	})

	t.Run("unreachable endpoint is an error", func(t *testing.T) {
		client := identity.NewHTTPProfileClient("http://127.0.0.1:1", identity.WithProfileLogger(testLogger{}))

		err := client.CreateProfile(context.Background(), request)
		assert.Error(t, err)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		client := identity.NewHTTPProfileClient(srv.URL, identity.WithProfileLogger(testLogger{}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := client.CreateProfile(ctx, request)
		assert.Error(t, err)
	})
}
