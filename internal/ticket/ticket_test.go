package ticket

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code := GenerateCode(1756200000, "a1b2c3d4-e5f6-7890-abcd-ef1234567890")
	assert.Equal(t, "TKT-1756200000-a1b2c3d4", code)
}

func TestGenerateCodeShortEventID(t *testing.T) {
	code := GenerateCode(1756200000, "abc")
	assert.Equal(t, "TKT-1756200000-abc", code)
}

func TestDisambiguate(t *testing.T) {
	base := "TKT-1756200000-a1b2c3d4"
	disambiguated := Disambiguate(base)

	require.True(t, strings.HasPrefix(disambiguated, base+"-"))

	suffix := strings.TrimPrefix(disambiguated, base+"-")
	assert.Len(t, suffix, 4)
	for _, r := range suffix {
		assert.Contains(t, disambiguatorAlphabet, string(r))
	}
}

func TestGenerateQRPayload(t *testing.T) {
	payload := GenerateQRPayload("TKT-1756200000-a1b2c3d4")

	const prefix = "data:application/json;base64,"
	require.True(t, strings.HasPrefix(payload, prefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(payload, prefix))
	require.NoError(t, err)

	var doc struct {
		V    int    `json:"v"`
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, 1, doc.V)
	assert.Equal(t, "TKT-1756200000-a1b2c3d4", doc.Code)
}

func TestDecodeQRPayload(t *testing.T) {
	payload := GenerateQRPayload("TKT-1756200000-a1b2c3d4")

	code, err := DecodeQRPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, "TKT-1756200000-a1b2c3d4", code)
}

func TestDecodeQRPayloadRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"wrong prefix":  "data:text/plain;base64,aGVsbG8=",
		"bad base64":    "data:application/json;base64,!!!",
		"not json":      "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte("hello")),
		"wrong version": "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(`{"v":2,"code":"TKT-1"}`)),
		"empty code":    "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(`{"v":1,"code":""}`)),
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeQRPayload(payload)
			assert.Error(t, err)
		})
	}
}
