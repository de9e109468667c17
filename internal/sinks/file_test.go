package sinks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = `
policy: all
timeout: 5s
sinks:
  - type: endpoint
    url: http://localhost:5000/api/register
  - type: webhook
    name: sheet
    url: https://hooks.example.com/forms/abc
    secret: ${YOGACAMP_TEST_SECRET}
  - type: archive
    bucket: camp-archive
`

func TestLoadFile(t *testing.T) {
	t.Setenv("YOGACAMP_TEST_SECRET", "from-env")
	path := filepath.Join(t.TempDir(), "sinks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, All, f.PolicyValue())
	assert.Equal(t, 5*time.Second, f.Timeout)
	require.Len(t, f.Sinks, 3)
	assert.Equal(t, "from-env", f.Sinks[1].Secret)

	var opened []string
	built, err := f.Build(t.Context(), nil, func(_ context.Context, bucket string) (ObjectStore, error) {
		opened = append(opened, bucket)
		return &memObjects{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"camp-archive"}, opened)
	require.Len(t, built, 3)
	assert.Equal(t, "endpoint", built[0].Name())
	assert.Equal(t, "sheet", built[1].Name())
	assert.Equal(t, "archive", built[2].Name())
}

func TestParseFileRejects(t *testing.T) {
	tests := map[string]string{
		"no sinks":       "policy: all\n",
		"bad policy":     "policy: most\nsinks: [{type: endpoint, url: http://x}]\n",
		"unknown type":   "sinks: [{type: fax, url: http://x}]\n",
		"missing url":    "sinks: [{type: webhook}]\n",
		"missing bucket": "sinks: [{type: archive}]\n",
		"bad timeout":    "timeout: soon\nsinks: [{type: endpoint, url: http://x}]\n",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFile([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestBuildArchiveOpenError(t *testing.T) {
	f, err := ParseFile([]byte("sinks: [{type: archive, bucket: b}]\n"))
	require.NoError(t, err)
	assert.Equal(t, AtLeastOne, f.PolicyValue())

	_, err = f.Build(t.Context(), nil, func(context.Context, string) (ObjectStore, error) {
		return nil, errors.New("no credentials")
	})
	assert.ErrorContains(t, err, "no credentials")

	_, err = f.Build(t.Context(), nil, nil)
	assert.Error(t, err)
}
