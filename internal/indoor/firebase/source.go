// Package firebase reads the indoor sensor document from a Firebase Realtime
// Database reference.
package firebase

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/indoor"
)

// ProviderName identifies the source on readings.
const ProviderName = "firebase"

// DefaultRef is the database path the sensor writes to.
const DefaultRef = "airQuality"

// Config holds configuration for the Firebase source.
type Config struct {
	// DatabaseURL is the Realtime Database URL (required).
	DatabaseURL string

	// Credentials is the base64-encoded service account JSON. When empty,
	// application default credentials are used.
	Credentials string

	// Ref overrides DefaultRef.
	Ref string

	Logger zerolog.Logger
}

// Ref is the part of *db.Ref the source needs.
type Ref interface {
	Get(ctx context.Context, v interface{}) error
}

// Source reads the latest indoor reading on demand.
type Source struct {
	ref    Ref
	logger zerolog.Logger
	now    func() time.Time
}

var _ airquality.IndoorSource = (*Source)(nil)

// New connects to the Realtime Database described by cfg.
func New(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("firebase database URL is required")
	}

	var opts []option.ClientOption
	if cfg.Credentials != "" {
		creds, err := base64.StdEncoding.DecodeString(cfg.Credentials)
		if err != nil {
			return nil, fmt.Errorf("decoding firebase credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.DatabaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	path := cfg.Ref
	if path == "" {
		path = DefaultRef
	}

	cfg.Logger.Info().
		Str("database_url", cfg.DatabaseURL).
		Str("ref", path).
		Msg("firebase indoor source ready")

	return NewWithRef(client.NewRef(path), cfg.Logger), nil
}

// NewWithRef creates a source over an existing reference.
func NewWithRef(ref Ref, logger zerolog.Logger) *Source {
	return &Source{ref: ref, logger: logger, now: time.Now}
}

// Latest returns the current document, or airquality.ErrNoIndoorData when
// the reference is empty.
func (s *Source) Latest(ctx context.Context) (*airquality.Reading, error) {
	var raw json.RawMessage
	if err := s.ref.Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("reading indoor reference: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, airquality.ErrNoIndoorData
	}

	payload, err := indoor.Decode(trimmed)
	if err != nil {
		return nil, err
	}

	reading, err := payload.Reading(ProviderName, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Float64("pm25", reading.Concentrations.PM25).
		Time("observed_at", reading.ObservedAt).
		Msg("read indoor document")

	return reading, nil
}
