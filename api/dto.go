/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response types returned to clients

Snapshots are the exception: scoring.Snapshot IS the external contract
(the projector is the single point of truth for every derived figure), so
it is serialized directly rather than re-mapped here.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/match.go: MatchSetup document for match creation
*/
package api

import (
	"time"

	"github.com/warp/cricket-engine/scoring"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// DeliveryRequest is one ball as submitted by the scoring operator.
// Ordering metadata (over, ball) is intentionally absent: the reducer
// assigns it and would ignore anything the client sent.
type DeliveryRequest struct {
	StrikerID         string `json:"striker_id"`
	NonStrikerID      string `json:"non_striker_id"`
	BowlerID          string `json:"bowler_id"`
	RunsOffBat        int    `json:"runs_off_bat"`
	Extra             string `json:"extra"`
	ExtraRuns         int    `json:"extra_runs"`
	IsWicket          bool   `json:"is_wicket"`
	DismissalType     string `json:"dismissal_type,omitempty"`
	DismissedPlayerID string `json:"dismissed_player_id,omitempty"`
	FielderID         string `json:"fielder_id,omitempty"`
	MidOverChange     bool   `json:"mid_over_change,omitempty"`
	Commentary        string `json:"commentary,omitempty"`
}

func (r DeliveryRequest) toDomain() scoring.Delivery {
	extra := scoring.Extra(r.Extra)
	if r.Extra == "" {
		extra = scoring.ExtraNone
	}
	return scoring.Delivery{
		Striker:         scoring.PlayerID(r.StrikerID),
		NonStriker:      scoring.PlayerID(r.NonStrikerID),
		Bowler:          scoring.PlayerID(r.BowlerID),
		RunsOffBat:      r.RunsOffBat,
		Extra:           extra,
		ExtraRuns:       r.ExtraRuns,
		IsWicket:        r.IsWicket,
		Dismissal:       scoring.Dismissal(r.DismissalType),
		DismissedPlayer: scoring.PlayerID(r.DismissedPlayerID),
		Fielder:         scoring.PlayerID(r.FielderID),
		MidOverChange:   r.MidOverChange,
		Commentary:      r.Commentary,
	}
}

// CorrectionRequest is a partial edit to one delivery. Absent fields are
// left unchanged.
type CorrectionRequest struct {
	StrikerID         *string `json:"striker_id,omitempty"`
	NonStrikerID      *string `json:"non_striker_id,omitempty"`
	BowlerID          *string `json:"bowler_id,omitempty"`
	RunsOffBat        *int    `json:"runs_off_bat,omitempty"`
	Extra             *string `json:"extra,omitempty"`
	ExtraRuns         *int    `json:"extra_runs,omitempty"`
	IsWicket          *bool   `json:"is_wicket,omitempty"`
	DismissalType     *string `json:"dismissal_type,omitempty"`
	DismissedPlayerID *string `json:"dismissed_player_id,omitempty"`
	FielderID         *string `json:"fielder_id,omitempty"`
	MidOverChange     *bool   `json:"mid_over_change,omitempty"`
	Commentary        *string `json:"commentary,omitempty"`
}

func (r CorrectionRequest) toDomain() scoring.DeliveryEdit {
	edit := scoring.DeliveryEdit{
		RunsOffBat:    r.RunsOffBat,
		ExtraRuns:     r.ExtraRuns,
		IsWicket:      r.IsWicket,
		MidOverChange: r.MidOverChange,
		Commentary:    r.Commentary,
	}
	if r.StrikerID != nil {
		v := scoring.PlayerID(*r.StrikerID)
		edit.Striker = &v
	}
	if r.NonStrikerID != nil {
		v := scoring.PlayerID(*r.NonStrikerID)
		edit.NonStriker = &v
	}
	if r.BowlerID != nil {
		v := scoring.PlayerID(*r.BowlerID)
		edit.Bowler = &v
	}
	if r.Extra != nil {
		v := scoring.Extra(*r.Extra)
		edit.Extra = &v
	}
	if r.DismissalType != nil {
		v := scoring.Dismissal(*r.DismissalType)
		edit.Dismissal = &v
	}
	if r.DismissedPlayerID != nil {
		v := scoring.PlayerID(*r.DismissedPlayerID)
		edit.DismissedPlayer = &v
	}
	if r.FielderID != nil {
		v := scoring.PlayerID(*r.FielderID)
		edit.Fielder = &v
	}
	return edit
}

// RevisionRequest carries the interruption collaborator's inputs. The
// engine treats both as opaque - no rain-rule arithmetic happens here.
type RevisionRequest struct {
	Target     *int `json:"target,omitempty"`
	OversLimit *int `json:"overs_limit,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// DeliveryDTO is one ledger entry in API responses.
type DeliveryDTO struct {
	ID                string `json:"id"`
	Inning            int    `json:"inning"`
	Over              int    `json:"over_number"`
	BallInOver        int    `json:"ball_number"`
	StrikerID         string `json:"striker_id"`
	NonStrikerID      string `json:"non_striker_id"`
	BowlerID          string `json:"bowler_id"`
	RunsOffBat        int    `json:"runs_off_bat"`
	Extra             string `json:"extra"`
	ExtraRuns         int    `json:"extra_runs"`
	RunsScored        int    `json:"runs_scored"`
	IsWicket          bool   `json:"is_wicket"`
	DismissalType     string `json:"dismissal_type,omitempty"`
	DismissedPlayerID string `json:"dismissed_player_id,omitempty"`
	FielderID         string `json:"fielder_id,omitempty"`
	MidOverChange     bool   `json:"mid_over_change,omitempty"`
	Commentary        string `json:"commentary,omitempty"`
	At                string `json:"at"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toDeliveryDTO(d scoring.Delivery) DeliveryDTO {
	return DeliveryDTO{
		ID:                string(d.ID),
		Inning:            d.Inning,
		Over:              d.Over,
		BallInOver:        d.BallInOver,
		StrikerID:         string(d.Striker),
		NonStrikerID:      string(d.NonStriker),
		BowlerID:          string(d.Bowler),
		RunsOffBat:        d.RunsOffBat,
		Extra:             string(d.Extra),
		ExtraRuns:         d.ExtraRuns,
		RunsScored:        d.RunsScored(),
		IsWicket:          d.IsWicket,
		DismissalType:     string(d.Dismissal),
		DismissedPlayerID: string(d.DismissedPlayer),
		FielderID:         string(d.Fielder),
		MidOverChange:     d.MidOverChange,
		Commentary:        d.Commentary,
		At:                d.At.Format(time.RFC3339Nano),
	}
}

func toDeliveryDTOs(ds []scoring.Delivery) []DeliveryDTO {
	dtos := make([]DeliveryDTO, len(ds))
	for i, d := range ds {
		dtos[i] = toDeliveryDTO(d)
	}
	return dtos
}
