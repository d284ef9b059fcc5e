// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package schema selects the schema description embedded in the agent prompt.
// A description is either a curated catalog of hand-written table notes or the
// text produced by introspecting the live database.
package schema

import (
	"context"
	"fmt"
	"strings"
	"sync"

	apperrors "sqlagent/cli/internal/errors"
)

// Mode controls how Describe picks between curated and introspected schemas.
type Mode string

const (
	// ModeAuto uses a curated catalog when one matches the database name, otherwise introspects.
	ModeAuto Mode = "auto"
	// ModeCurated requires a curated catalog.
	ModeCurated Mode = "curated"
	// ModeDynamic always introspects.
	ModeDynamic Mode = "dynamic"
)

// ParseMode maps a configuration value to a Mode. Empty means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeCurated:
		return ModeCurated, nil
	case ModeDynamic:
		return ModeDynamic, nil
	default:
		return "", apperrors.New(apperrors.ConfigurationError,
			fmt.Sprintf("unknown schema mode %q (expected auto, curated or dynamic)", s))
	}
}

// Table is one curated table note.
type Table struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Catalog is the curated description of one database. Table order is preserved
// when rendered.
type Catalog struct {
	Database string  `yaml:"database"`
	Tables   []Table `yaml:"tables"`
}

// Introspector produces a schema description from a live connection.
type Introspector interface {
	Introspect(ctx context.Context) (string, error)
}

// Source tells where a Description came from.
type Source int

const (
	SourceCurated Source = iota
	SourceDynamic
)

func (s Source) String() string {
	if s == SourceCurated {
		return "curated"
	}
	return "dynamic"
}

// Description is the schema text handed to the agent.
type Description struct {
	Source Source
	// Catalog is set when Source is SourceCurated.
	Catalog Catalog
	// Text is the introspected schema when Source is SourceDynamic.
	Text string
}

// Render formats the description for the system prompt.
func (d Description) Render() string {
	if d.Source == SourceDynamic {
		return "Here is the schema of the database you are connected to:\n" + d.Text
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here is the Database Schema for %s you must use:\n", d.Catalog.Database)
	for _, t := range d.Catalog.Tables {
		fmt.Fprintf(&b, "\nTable: %s\n%s\n", t.Name, t.Description)
	}
	return b.String()
}

// Provider holds the registered curated catalogs.
type Provider struct {
	mu       sync.RWMutex
	catalogs map[string]Catalog
}

// NewProvider creates a provider with the given catalogs registered in order.
func NewProvider(catalogs ...Catalog) *Provider {
	p := &Provider{catalogs: make(map[string]Catalog)}
	p.Register(catalogs...)
	return p
}

// Register adds catalogs, replacing any with the same database name.
func (p *Provider) Register(catalogs ...Catalog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range catalogs {
		p.catalogs[c.Database] = c
	}
}

// Lookup returns the curated catalog registered under exactly databaseName.
func (p *Provider) Lookup(databaseName string) (Catalog, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.catalogs[databaseName]
	return c, ok
}

// Describe returns the schema description for databaseName.
// The introspector is only consulted when no curated catalog applies.
func (p *Provider) Describe(ctx context.Context, databaseName string, mode Mode, in Introspector) (Description, error) {
	if mode != ModeDynamic {
		if c, ok := p.Lookup(databaseName); ok {
			return Description{Source: SourceCurated, Catalog: c}, nil
		}
		if mode == ModeCurated {
			return Description{}, apperrors.New(apperrors.ConfigurationError,
				fmt.Sprintf("no curated schema registered for database %q", databaseName))
		}
	}

	if in == nil {
		return Description{}, apperrors.New(apperrors.ConfigurationError,
			"schema introspection requested but no database connection is available")
	}

	text, err := in.Introspect(ctx)
	if err != nil {
		return Description{}, fmt.Errorf("introspect schema: %w", err)
	}
	return Description{Source: SourceDynamic, Text: text}, nil
}
