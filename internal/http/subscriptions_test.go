package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionsController(t *testing.T) {
	stack := newAPIStack(t)
	body := map[string]any{"full_name": "Maria Silva", "email": "fan@example.com"}

	rec := doRequest(t, stack.router, http.MethodPost, "/api/subscriptions", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "created", created["outcome"])
	id := uint(created["subscription"].(map[string]any)["id"].(float64))

	rec = doRequest(t, stack.router, http.MethodPost, "/api/subscriptions", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_subscribed", decode(t, rec)["outcome"])

	rec = doRequest(t, stack.router, http.MethodPost, "/api/subscriptions",
		map[string]any{"full_name": "Maria Silva", "email": "not-an-email"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must be a valid email address", decode(t, rec)["details"].(map[string]any)["email"])

	rec = doRequest(t, stack.router, http.MethodPost, "/api/admin/subscriptions/deactivate",
		map[string]any{"ids": []uint{id}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["updated"])

	rec = doRequest(t, stack.router, http.MethodGet, "/api/admin/subscriptions?active=false", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = doRequest(t, stack.router, http.MethodGet, "/api/admin/subscriptions?active=true", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["count"])

	rec = doRequest(t, stack.router, http.MethodGet, "/api/admin/subscriptions?active=maybe", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, stack.router, http.MethodPost, "/api/admin/subscriptions/activate",
		map[string]any{"ids": []uint{}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, stack.router, http.MethodPost, "/api/subscriptions", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reactivated", decode(t, rec)["outcome"])

	rec = doRequest(t, stack.router, http.MethodGet, "/api/admin/subscriptions", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	subs := decode(t, rec)["subscriptions"].([]any)
	require.Len(t, subs, 1)
	assert.Equal(t, true, subs[0].(map[string]any)["is_active"], fmt.Sprint(subs[0]))
}
