// Package openalerts provides the public API for embedding the monitoring
// engine in an agent process. This is the stable API for external
// consumers.
package openalerts

import (
	"github.com/tjfontaine/openalerts/internal/config"
	"github.com/tjfontaine/openalerts/internal/domain"
	"github.com/tjfontaine/openalerts/internal/engine"
)

// Engine is the monitoring pipeline. See internal/engine.Engine for full
// documentation.
type Engine = engine.Engine

// Option is a functional option for configuring an Engine.
type Option = engine.Option

// Config holds engine settings. Load it from YAML plus environment with
// LoadConfig, or start from DefaultConfig and set fields directly.
type Config = config.Config

// Event is one lifecycle event from a monitored agent process.
type Event = domain.Event

// EventType identifies the kind of event.
type EventType = domain.EventType

// Alert is a rule match that survived suppression.
type Alert = domain.Alert

// Severity grades events and alerts.
type Severity = domain.Severity

// New creates an Engine from configuration.
// Example:
//
//	eng := openalerts.New(cfg, openalerts.WithLogger(logger))
//	if err := eng.Start(ctx); err != nil { ... }
//	eng.Ingest(ctx, openalerts.NewEvent(openalerts.EventToolError))
var New = engine.New

// Configuration options
var (
	WithLogger              = engine.WithLogger
	WithRules               = engine.WithRules
	WithChannel             = engine.WithChannel
	WithoutEventPersistence = engine.WithoutEventPersistence
)

// Config constructors
var (
	LoadConfig    = config.Load
	DefaultConfig = config.Default
)

// Event helpers
var (
	NewEvent = domain.NewEvent
	Now      = domain.Now
	Int      = domain.Int
)

// Event types
const (
	EventModelCall       = domain.EventModelCall
	EventModelError      = domain.EventModelError
	EventModelTokenUsage = domain.EventModelTokenUsage
	EventToolCall        = domain.EventToolCall
	EventToolError       = domain.EventToolError
	EventAgentStart      = domain.EventAgentStart
	EventAgentEnd        = domain.EventAgentEnd
	EventAgentError      = domain.EventAgentError
	EventAgentStuck      = domain.EventAgentStuck
	EventAgentStep       = domain.EventAgentStep
	EventTokenLimit      = domain.EventTokenLimit
	EventStepLimit       = domain.EventStepLimit
	EventCustom          = domain.EventCustom
)

// Severities
const (
	SeverityInfo     = domain.SeverityInfo
	SeverityWarn     = domain.SeverityWarn
	SeverityError    = domain.SeverityError
	SeverityCritical = domain.SeverityCritical
)
