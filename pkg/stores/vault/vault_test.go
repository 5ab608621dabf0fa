package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRequestShape(t *testing.T) {
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/constructs/vex/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"snippet": "sparse voxel octrees", "relevance_score": 0.92, "source": "transcript"},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL)
	snippets, err := client.Search(context.Background(), "vex", SearchRequest{
		Scope: "thread:t1",
		Limit: 5,
	})

	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "sparse voxel octrees", snippets[0].Snippet)
	assert.InDelta(t, 0.92, snippets[0].Relevance, 1e-9)

	assert.Equal(t, "thread:t1", captured["scope"])
	_, hasQuery := captured["query"]
	assert.False(t, hasQuery, "scoped search must not carry a query")
}

func TestSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Search(context.Background(), "vex", SearchRequest{Query: "q", Limit: 1})

	assert.Error(t, err)
}

func TestStoreDuplicate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/constructs/vex/transcripts", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "duplicate": true})
	}))
	defer server.Close()

	client := New(server.URL)
	result, err := client.Store(context.Background(), "vex", "ctx", "resp", nil)

	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.True(t, result.Duplicate)
}

func TestReadCapsuleNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL)
	raw, err := client.ReadCapsule(context.Background(), "ghost")

	// Absence is a valid result, not an error.
	assert.NoError(t, err)
	assert.Nil(t, raw)
}

func TestReadCapsule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/constructs/vex/capsule", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"capsule": map[string]any{
				"metadata": map[string]any{"instance_name": "Vex"},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL)
	raw, err := client.ReadCapsule(context.Background(), "vex")

	require.NoError(t, err)
	assert.Contains(t, string(raw), "Vex")
}
