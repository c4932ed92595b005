package mailcow

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Domain:     "example.com",
		SharedAddr: "inbox@example.com",
	})
}

func TestCreateAlias(t *testing.T) {
	var gotPath, gotKey string
	var gotPayload map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode([]APIResponse{{Type: "success"}})
	})

	err := c.CreateAlias(t.Context(), "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/add/alias", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "user@example.com", gotPayload["address"])
	assert.Equal(t, "inbox@example.com", gotPayload["goto"])
}

func TestCreateAlias_APIFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]APIResponse{{Type: "danger", Msg: []string{"alias exists"}}})
	})

	err := c.CreateAlias(t.Context(), "user@example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "alias exists")
}

func TestDeleteAlias(t *testing.T) {
	var deleted []int

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/get/alias/all":
			json.NewEncoder(w).Encode([]alias{
				{ID: 7, Address: "other@example.com"},
				{ID: 9, Address: "user@example.com"},
			})
		case "/api/v1/delete/alias":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&deleted))
			json.NewEncoder(w).Encode([]APIResponse{{Type: "success"}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	err := c.DeleteAlias(t.Context(), "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, []int{9}, deleted)
}

func TestDeleteAlias_UnknownAddressIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/get/alias/all", r.URL.Path)
		json.NewEncoder(w).Encode([]alias{})
	})

	assert.NoError(t, c.DeleteAlias(t.Context(), "nobody@example.com"))
}
