package activity

import "strings"

// SwapVenueLabel is the venue line rendered for every detected swap.
const SwapVenueLabel = "Jupiter / Raydium / Orca"

// VenueSet is a list of exchange venue identifiers. An instruction whose
// program name contains one of them, ignoring case, marks a swap.
type VenueSet []string

// DefaultVenues are the recognized decentralized exchanges.
var DefaultVenues = VenueSet{
	"jup.ag",
	"raydium.io",
	"orca.so",
}

// Match reports whether programName contains one of the venue identifiers.
func (v VenueSet) Match(programName string) bool {
	name := strings.ToLower(programName)
	if name == "" {
		return false
	}
	for _, venue := range v {
		if venue != "" && strings.Contains(name, strings.ToLower(venue)) {
			return true
		}
	}
	return false
}

// DetectSwap reports whether a transaction with the given instructions and
// number of normalized transfers is a swap. A swap needs a recognized venue
// instruction and at least two transfers, one for each leg.
func (v VenueSet) DetectSwap(instructions []RawInstruction, transferCount int) bool {
	if transferCount < 2 {
		return false
	}
	for _, ix := range instructions {
		if ix.ProgramName != nil && v.Match(*ix.ProgramName) {
			return true
		}
	}
	return false
}
