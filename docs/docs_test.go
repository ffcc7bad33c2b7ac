package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredDocIsValidJSON(t *testing.T) {
	SwaggerInfo.Host = "chat.example.com"

	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var parsed struct {
		Host  string                 `json:"host"`
		Paths map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, "chat.example.com", parsed.Host)
	assert.Contains(t, parsed.Paths, "/groups/{groupId}/upload")
	assert.Contains(t, parsed.Paths, "/users")
}
