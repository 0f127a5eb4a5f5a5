package util

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bidtounsi/go-bidtounsi-server/types"
)

func TestGenerateAdminKeyFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		key := GenerateAdminKey()
		assert.True(t, IsAdminKeyFormat(key), "generated key %s does not match format", key)
		assert.False(t, IsRequestKeyFormat(key))
	}
}

func TestGenerateRequestKeyFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		key := GenerateRequestKey()
		assert.True(t, IsRequestKeyFormat(key), "generated key %s does not match format", key)
		assert.False(t, IsAdminKeyFormat(key))
	}
}

func TestGeneratedKeysAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key := GenerateAdminKey()
		assert.False(t, seen[key], "duplicate key generated: %s", key)
		seen[key] = true
	}
}

func TestGenerateKeyByKind(t *testing.T) {
	assert.True(t, IsAdminKeyFormat(GenerateKey(types.KeyKindAdmin)))
	assert.True(t, IsRequestKeyFormat(GenerateKey(types.KeyKindRequest)))
}

func TestKeyFormatRejections(t *testing.T) {
	cases := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"prefix only", "BT-"},
		{"lowercase hex", "BT-abcdef12-abcdef12-abcdef12"},
		{"short group", "BT-ABCDEF1-ABCDEF12-ABCDEF12"},
		{"long group", "BT-ABCDEF123-ABCDEF12-ABCDEF12"},
		{"non hex", "BT-ABCDEFGZ-ABCDEF12-ABCDEF12"},
		{"wrong prefix", "XX-ABCDEF12-ABCDEF12-ABCDEF12"},
		{"trailing garbage", "BT-ABCDEF12-ABCDEF12-ABCDEF12x"},
		{"request key lowercase", "bidtounsi_ABCDEF123456_ABC123"},
		{"request key short tail", "BIDTOUNSI_ABCDEF123456_ABC12"},
		{"request key wrong delimiter", "BIDTOUNSI-ABCDEF123456-ABC123"},
		{"sql-ish junk", "'; DROP TABLE admin_keys;--"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, IsKeyFormat(tc.key))
		})
	}
}

func TestKeyFormatAccepts(t *testing.T) {
	assert.True(t, IsKeyFormat("BT-ABCDEF12-01234567-89ABCDEF"))
	assert.True(t, IsKeyFormat("BIDTOUNSI_A1B2C3D4E5F6_XYZ789"))
}
