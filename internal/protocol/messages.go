// Package protocol defines the message records exchanged between a host and
// a ranking worker, validates them at the boundary and dispatches them to an
// engine.
package protocol

import (
	"errors"

	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/models"
)

// Inbound message types.
const (
	TypeInit    = "init"
	TypeCompute = "compute"
	TypeSolve   = "solve"
	TypeZones   = "zones"
)

// Outbound message types.
const (
	TypeReady  = "ready"
	TypeResult = "result"
	TypeSolved = "solved"
	TypeError  = "error"
)

var (
	ErrMalformedRequest = errors.New("malformed request")
	ErrUnknownType      = errors.New("unknown message type")
)

// Message is an inbound request. Payload stays loosely typed until it is
// validated by the parser for the message type.
type Message struct {
	Type    string         `json:"type" cbor:"type"`
	Seq     int64          `json:"seq" cbor:"seq"`
	Payload map[string]any `json:"payload,omitempty" cbor:"payload,omitempty"`
}

// Response is an outbound message. Seq always echoes the request's seq.
type Response struct {
	Type    string `json:"type" cbor:"type"`
	Seq     int64  `json:"seq" cbor:"seq"`
	Message string `json:"message,omitempty" cbor:"message,omitempty"`

	RankedDishes []engine.AnalyzedDish `json:"rankedDishes,omitempty" cbor:"rankedDishes,omitempty"`
	RankingMeta  *engine.RankingMeta   `json:"rankingMeta,omitempty" cbor:"rankingMeta,omitempty"`
	Solution     *engine.Solution      `json:"solution,omitempty" cbor:"solution,omitempty"`
	Zones        []models.EconomicZone `json:"zones,omitempty" cbor:"zones,omitempty"`
	DishCount    int                   `json:"dishCount,omitempty" cbor:"dishCount,omitempty"`

	// Err is the failure behind an error response. It never leaves the process.
	Err error `json:"-" cbor:"-"`
}

// SolveRequest is a validated solve payload.
type SolveRequest struct {
	Params engine.Params
	DishID string
	Metric string
	Target float64
}

// InitRequest is a validated init payload. Exactly one of Dataset or
// Location is set.
type InitRequest struct {
	Dataset  *models.Dataset
	Location string
}

func errorResponse(seq int64, err error) Response {
	return Response{Type: TypeError, Seq: seq, Message: err.Error(), Err: err}
}
