package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendError(t *testing.T) {
	var got DiscordMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := &Discord{ErrorURL: srv.URL, Client: srv.Client()}
	require.NoError(t, d.SendError(context.Background(), "band \"B6\" not found"))
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, colorRed, got.Embeds[0].Color)
	assert.Contains(t, got.Embeds[0].Description, `band "B6" not found`)
}

func TestSendSkipsWithoutURL(t *testing.T) {
	d := &Discord{}
	assert.NoError(t, d.SendSuccess(context.Background(), "done"))

	var nilDiscord *Discord
	assert.NoError(t, nilDiscord.SendError(context.Background(), "boom"))
}

func TestSendReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := &Discord{SuccessURL: srv.URL}
	assert.ErrorContains(t, d.SendSuccess(context.Background(), "done"), "429")
}
