package resources_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/viserion/resources"
	"github.com/stretchr/testify/require"
)

func TestResource_IDAcceptsStringOrNumber(t *testing.T) {
	var items []resources.Resource
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"1","name":"repo-a"},
		{"id":42,"login":"octocat"},
		{"id":null,"name":"orphan"}
	]`), &items))

	require.Equal(t, resources.ID("1"), items[0].ID)
	require.Equal(t, resources.ID("42"), items[1].ID)
	require.Equal(t, "octocat", items[1].DisplayName())
	require.Empty(t, items[2].RecordID())

	var bad resources.Resource
	require.Error(t, json.Unmarshal([]byte(`{"id":{"nested":true}}`), &bad))
}

func TestResource_MarshalsIDAsString(t *testing.T) {
	data, err := json.Marshal(resources.Resource{ID: "1", Name: "repo-a"})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"1","name":"repo-a"}`, string(data))
}
