package knowledgebase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/sources"
)

func TestFetchAccessPaginates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer kb-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		assert.Equal(t, "100", r.URL.Query().Get("page_size"))

		if r.URL.Query().Get("start_cursor") == "" {
			_, _ = w.Write([]byte(`{"object":"list","results":[
				{"object":"user","id":"a","type":"person","name":"Ada","person":{"email":"ada@example.org"}},
				{"object":"user","id":"b","type":"bot","name":"Integration","bot":{}}],
				"has_more":true,"next_cursor":"c2"}`))
			return
		}
		assert.Equal(t, "c2", r.URL.Query().Get("start_cursor"))
		_, _ = w.Write([]byte(`{"object":"list","results":[
			{"object":"user","id":"c","type":"person","name":"Jean","person":{"email":"JEAN@example.org"}}],
			"has_more":false,"next_cursor":null}`))
	}))
	defer server.Close()

	src := New(server.URL, "kb-token", "2022-06-28")
	assert.Equal(t, sources.KnowledgeBaseID, src.ID())

	records, err := src.FetchAccess(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ada@example.org", records[0].Email)
	assert.Equal(t, "jean@example.org", records[1].Email)
}

func TestFetchAccessForbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"object":"error","code":"restricted_resource"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "kb-token", "2022-06-28").FetchAccess(context.Background())
	assert.True(t, errors.IsSourceUnavailable(err))
	assert.Contains(t, err.Error(), "restricted_resource")
}
