package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistrationKey(t *testing.T) {
	key := RegistrationKey("ana@example.com")
	assert.True(t, strings.HasPrefix(key, "registrations/"), key)
	assert.True(t, strings.HasSuffix(key, ".json"))
	assert.Len(t, key, len("registrations/")+16+len(".json"))
	assert.NotContains(t, key, "ana")
	assert.Equal(t, key, RegistrationKey("ana@example.com"))
	assert.NotEqual(t, key, RegistrationKey("bo@example.com"))
}

func TestExportKey(t *testing.T) {
	at := time.Date(2025, 11, 17, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, "exports/registrations-20251117T060000Z.csv", ExportKey("", at))
	assert.Equal(t, "camp/2025/registrations-20251117T060000Z.csv", ExportKey("camp/2025", at))

	ist := time.Date(2025, 11, 17, 11, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	assert.Equal(t, "exports/registrations-20251117T060000Z.csv", ExportKey("", ist))
}
