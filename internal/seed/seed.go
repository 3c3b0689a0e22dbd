// Package seed loads demo profiles from YAML into the store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/kalambet/folio/internal/profile"
	"github.com/kalambet/folio/internal/storage"
)

//go:embed default.yaml
var defaultYAML []byte

// Document is the top-level shape of a seed file.
type Document struct {
	Profiles []profile.Input `yaml:"profiles"`
}

// Seeder is the subset of profile.Manager the seed run needs.
type Seeder interface {
	FindByEmail(email string) (profile.Profile, error)
	Create(in profile.Input) (profile.Profile, error)
}

// Result summarizes a seed run.
type Result struct {
	Created []profile.Profile
	Skipped []string // emails that already existed
}

// Load parses a seed document. Unknown fields are rejected so typos in a
// hand-written file surface instead of silently dropping data.
func Load(r io.Reader) ([]profile.Input, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("seed document is empty")
		}
		return nil, fmt.Errorf("parsing seed document: %w", err)
	}
	for i, in := range doc.Profiles {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
	}
	return doc.Profiles, nil
}

// Default returns the embedded demo profiles.
func Default() ([]profile.Input, error) {
	return Load(bytes.NewReader(defaultYAML))
}

// Run creates each input whose email is not registered yet. Existing
// profiles are left untouched, so running it twice is harmless.
func Run(ctx context.Context, s Seeder, inputs []profile.Input, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		_, err := s.FindByEmail(in.Email)
		if err == nil {
			logger.Info("profile already exists, skipping seed", "email", in.Email)
			res.Skipped = append(res.Skipped, in.Email)
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return res, fmt.Errorf("looking up %s: %w", in.Email, err)
		}

		p, err := s.Create(in)
		if err != nil {
			return res, fmt.Errorf("seeding %s: %w", in.Email, err)
		}
		logger.Info("seeded profile",
			"name", p.Name,
			"projects", len(p.Projects),
			"work", len(p.Work),
			"skills", len(p.Skills),
		)
		res.Created = append(res.Created, p)
	}
	return res, nil
}
