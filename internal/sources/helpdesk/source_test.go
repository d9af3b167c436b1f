package helpdesk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covidliste/directory/pkg/sources"
)

func TestFetchAccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer help-token", r.Header.Get("Authorization"))
		assert.Equal(t, APIVersion, r.Header.Get("Intercom-Version"))
		_, _ = w.Write([]byte(`{"type":"admin.list","admins":[
			{"type":"admin","id":"1","name":"Ada","email":"ada@example.org"},
			{"type":"team","id":"2","name":"Support"}]}`))
	}))
	defer server.Close()

	src := New(server.URL, "help-token")
	assert.Equal(t, sources.HelpdeskID, src.ID())

	records, err := src.FetchAccess(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ada@example.org", records[0].Email)
	assert.Equal(t, "admin", records[0].Role)
	assert.False(t, records[0].Invited)
}

func TestFetchAccessMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := New(server.URL, "help-token").FetchAccess(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json")
}
