package sinks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sink types accepted in a sinks file.
const (
	TypeEndpoint = "endpoint"
	TypeWebhook  = "webhook"
	TypeArchive  = "archive"
)

// File is the YAML sink list used by the registration client:
//
//	policy: at_least_one
//	timeout: 15s
//	sinks:
//	  - type: endpoint
//	    url: https://api.example.com/api/register
//	  - type: webhook
//	    url: https://hooks.example.com/forms/abc
//	    secret: ${WEBHOOK_SIGNING_SECRET}
//	  - type: archive
//	    bucket: yogacamp-registrations
type File struct {
	Policy  string        `yaml:"policy"`
	Timeout time.Duration `yaml:"timeout"`
	Sinks   []SinkSpec    `yaml:"sinks"`
}

// SinkSpec describes one sink in a File.
type SinkSpec struct {
	Type   string `yaml:"type"`
	Name   string `yaml:"name,omitempty"`
	URL    string `yaml:"url,omitempty"`
	Secret string `yaml:"secret,omitempty"`
	Bucket string `yaml:"bucket,omitempty"`
}

// ArchiveOpener returns the object store for an archive sink's bucket.
type ArchiveOpener func(ctx context.Context, bucket string) (ObjectStore, error)

// LoadFile reads and parses a sinks file. Environment references are expanded.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sinks file: %w", err)
	}
	return ParseFile(raw)
}

func ParseFile(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &f); err != nil {
		return nil, fmt.Errorf("parse sinks file: %w", err)
	}
	if _, err := ParsePolicy(f.Policy); err != nil {
		return nil, err
	}
	if f.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative")
	}
	if len(f.Sinks) == 0 {
		return nil, fmt.Errorf("sinks file lists no sinks")
	}
	for i, s := range f.Sinks {
		switch strings.ToLower(s.Type) {
		case TypeEndpoint, TypeWebhook:
			if s.URL == "" {
				return nil, fmt.Errorf("sink %d (%s): url is required", i, s.Type)
			}
		case TypeArchive:
			if s.Bucket == "" {
				return nil, fmt.Errorf("sink %d (archive): bucket is required", i)
			}
		default:
			return nil, fmt.Errorf("sink %d: unknown type %q", i, s.Type)
		}
	}
	return &f, nil
}

// Build constructs the sinks. openArchive is only called for archive entries.
func (f *File) Build(ctx context.Context, client *http.Client, openArchive ArchiveOpener) ([]Sink, error) {
	out := make([]Sink, 0, len(f.Sinks))
	for _, s := range f.Sinks {
		switch strings.ToLower(s.Type) {
		case TypeEndpoint:
			out = append(out, NewEndpointSink(s.Name, s.URL, client))
		case TypeWebhook:
			out = append(out, NewWebhookSink(s.Name, s.URL, s.Secret, client))
		case TypeArchive:
			if openArchive == nil {
				return nil, fmt.Errorf("archive sink %q: no object store available", s.Bucket)
			}
			store, err := openArchive(ctx, s.Bucket)
			if err != nil {
				return nil, fmt.Errorf("archive sink %q: %w", s.Bucket, err)
			}
			out = append(out, NewArchiveSink(s.Name, store))
		}
	}
	return out, nil
}

// PolicyValue returns the parsed policy; ParseFile has already validated it.
func (f *File) PolicyValue() Policy {
	p, _ := ParsePolicy(f.Policy)
	return p
}
