package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Retrieve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/retrieve", r.URL.Path)

		var req retrieveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mechanism of paracetamol", req.Query)
		assert.Equal(t, 5, req.TopK)

		json.NewEncoder(w).Encode(retrieveResponse{
			Context: "Paracetamol inhibits prostaglandin synthesis.",
			Sources: []sourceJSON{{DocID: "doc-1", Excerpt: "…", Similarity: 0.91}},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	defer c.Close()

	rc, err := c.Retrieve(context.Background(), "mechanism of paracetamol", 5)
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol inhibits prostaglandin synthesis.", rc.Text)
	require.Len(t, rc.Sources, 1)
	assert.Equal(t, "doc-1", rc.Sources[0].DocID)
	assert.Equal(t, 0.91, rc.Sources[0].Similarity)
	assert.False(t, rc.Empty())
}

func TestHTTPClient_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(retrieveResponse{})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	defer c.Close()

	rc, err := c.Retrieve(context.Background(), "something unanswerable", 5)
	require.NoError(t, err)
	assert.True(t, rc.Empty(), "no matching documents is not an error")
}

func TestHTTPClient_ServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	defer c.Close()

	_, err := c.Retrieve(context.Background(), "query text", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
