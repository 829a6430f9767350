// Package captable defines the ownership data model shared by every
// engine: shareholder positions, financing round terms, convertible
// notes, exit definitions, and whole-scenario containers, together with
// their field-qualified validation.
package captable

// ShareClass identifies the security class of a position.
type ShareClass string

const (
	ClassCommon    ShareClass = "COMMON"
	ClassPreferred ShareClass = "PREFERRED"
)

// Valid reports whether c is a recognized share class.
func (c ShareClass) Valid() bool {
	return c == ClassCommon || c == ClassPreferred
}

// AntiDilutionType selects a down-round price protection policy.
type AntiDilutionType string

const (
	AntiDilutionNone           AntiDilutionType = "NONE"
	AntiDilutionFullRatchet    AntiDilutionType = "FULL_RATCHET"
	AntiDilutionBroadWeighted  AntiDilutionType = "WEIGHTED_AVERAGE_BROAD"
	AntiDilutionNarrowWeighted AntiDilutionType = "WEIGHTED_AVERAGE_NARROW"
)

// Valid reports whether t is a recognized anti-dilution type.
func (t AntiDilutionType) Valid() bool {
	switch t {
	case AntiDilutionNone, AntiDilutionFullRatchet, AntiDilutionBroadWeighted, AntiDilutionNarrowWeighted:
		return true
	}
	return false
}

// ParticipationRights selects whether preferred stock shares in proceeds
// remaining after liquidation preferences are paid.
type ParticipationRights string

const (
	ParticipationNone   ParticipationRights = "NONE"
	ParticipationFull   ParticipationRights = "FULL"
	ParticipationCapped ParticipationRights = "CAPPED"
)

// Valid reports whether p is a recognized participation right.
func (p ParticipationRights) Valid() bool {
	switch p {
	case ParticipationNone, ParticipationFull, ParticipationCapped:
		return true
	}
	return false
}

// NoteConversionMode selects how a convertible note prices its conversion.
type NoteConversionMode string

const (
	NoteValuationCap   NoteConversionMode = "VALUATION_CAP"
	NoteDiscount       NoteConversionMode = "DISCOUNT"
	NoteCapAndDiscount NoteConversionMode = "CAP_AND_DISCOUNT"
	NoteMFNOnly        NoteConversionMode = "MFN_ONLY"
)

// Valid reports whether m is a recognized conversion mode.
func (m NoteConversionMode) Valid() bool {
	switch m {
	case NoteValuationCap, NoteDiscount, NoteCapAndDiscount, NoteMFNOnly:
		return true
	}
	return false
}

// ExitType classifies a liquidity event.
type ExitType string

const (
	ExitAcquisition ExitType = "ACQUISITION"
	ExitIPO         ExitType = "IPO"
	ExitSecondary   ExitType = "SECONDARY"
	ExitDissolution ExitType = "DISSOLUTION"
)

// Valid reports whether t is a recognized exit type.
func (t ExitType) Valid() bool {
	switch t {
	case ExitAcquisition, ExitIPO, ExitSecondary, ExitDissolution:
		return true
	}
	return false
}

// Position is one shareholder's holding of a single class. Positions are
// immutable: a round produces a new position list rather than editing one
// in place.
type Position struct {
	ID     string     `json:"id" yaml:"id"`
	Name   string     `json:"name" yaml:"name"`
	Shares int64      `json:"shares" yaml:"shares"`
	Class  ShareClass `json:"class" yaml:"class"`
}

// PositionList is an ordered set of holdings. Order is preserved across
// rounds so synthetic positions append deterministically.
type PositionList []Position

// TotalShares sums the share counts of every position.
func (pl PositionList) TotalShares() int64 {
	var total int64
	for _, p := range pl {
		total += p.Shares
	}
	return total
}

// SharesByClass sums share counts for one class.
func (pl PositionList) SharesByClass(c ShareClass) int64 {
	var total int64
	for _, p := range pl {
		if p.Class == c {
			total += p.Shares
		}
	}
	return total
}

// Validate checks the list as a round input: every position well formed
// and a strictly positive combined share count.
func (pl PositionList) Validate() error {
	var errs []error
	if len(pl) == 0 {
		errs = append(errs, Errorf("positions", "position list is empty"))
	}
	for i, p := range pl {
		if p.ID == "" {
			errs = append(errs, Errorf(field("positions", i, "id"), "position id is required"))
		}
		if p.Shares < 0 {
			errs = append(errs, Errorf(field("positions", i, "shares"), "share count %d is negative", p.Shares))
		}
		if !p.Class.Valid() {
			errs = append(errs, Errorf(field("positions", i, "class"), "unrecognized share class %q", p.Class))
		}
	}
	if len(pl) > 0 && pl.TotalShares() <= 0 {
		errs = append(errs, Errorf("positions", "total share count must be positive"))
	}
	return join(errs)
}

// Clone returns a deep copy of the list.
func (pl PositionList) Clone() PositionList {
	out := make(PositionList, len(pl))
	copy(out, pl)
	return out
}
