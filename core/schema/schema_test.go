package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schemaRefString = `{ "type" : "string" ,
                         "$id" : "http://alocoap.local/string.json"}`

var schemaDeviceString = `{ "$id": "http://alocoap.local/device.json",
                            "type": "object",
                            "required": ["name"],
                            "properties": {
                                "name": { "$ref": "http://alocoap.local/string.json" },
                                "humidity": { "type": "number", "minimum": 0, "maximum": 100 }
                            }
                          }`

func TestValidator(t *testing.T) {
	v, err := NewValidator([]string{schemaDeviceString}, []string{schemaRefString})
	require.NoError(t, err)

	assert.True(t, v.HasSchema("http://alocoap.local/device.json"))
	assert.False(t, v.HasSchema("http://alocoap.local/string.json"))

	assert.NoError(t, v.ValidateString(`{"name":"kitchen","humidity":40}`, "http://alocoap.local/device.json"))
	assert.NoError(t, v.ValidateBytes([]byte(`{"name":"kitchen"}`), "http://alocoap.local/device.json"))
	assert.NoError(t, v.ValidateStruct(map[string]interface{}{"name": "kitchen"}, "http://alocoap.local/device.json"))

	err = v.ValidateString(`{"name":42}`, "http://alocoap.local/device.json")
	assert.Error(t, err)
	assert.True(t, IsValidationError(err))

	err = v.ValidateString(`{"name":"kitchen","humidity":140}`, "http://alocoap.local/device.json")
	assert.True(t, IsValidationError(err))

	err = v.ValidateString(`{}`, "http://alocoap.local/unknown.json")
	assert.Error(t, err)
	assert.False(t, IsValidationError(err))
}

func TestValidatorNeedsID(t *testing.T) {
	_, err := NewValidator([]string{`{"type":"object"}`}, nil)
	assert.Error(t, err)
	assert.Panics(t, func() { MustNewValidator(`{"type":`) })
}
