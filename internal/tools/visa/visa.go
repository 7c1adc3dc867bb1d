// Package visa answers entry-requirement lookups for supported destination
// countries. The data is a small static table; it is advisory only and the
// composer labels it as such.
package visa

import (
	"context"
	"strings"

	"tripweaver/config"
)

// ToolName is the wire name of the visa lookup tool.
const ToolName = "visa_lookup"

// Status is the coarse entry-requirement category.
type Status string

const (
	VisaFree      Status = "visa_free"
	VisaOnArrival Status = "visa_on_arrival"
	EVisa         Status = "evisa"
	VisaRequired  Status = "visa_required"
)

// Info is the entry requirement for one nationality and destination pair.
type Info struct {
	Status      Status `json:"status"`
	DaysAllowed int    `json:"days_allowed,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Service resolves entry requirements. A missing pair is (nil, nil).
type Service interface {
	Lookup(ctx context.Context, nationality, countryCode string) (*Info, error)
}

// entries for Singapore passport holders, keyed by destination country code.
var sgTable = map[string]Info{
	"MY": {Status: VisaFree, DaysAllowed: 30},
	"TH": {Status: VisaFree, DaysAllowed: 30},
	"ID": {Status: VisaFree, DaysAllowed: 30},
	"PH": {Status: VisaFree, DaysAllowed: 30},
	"VN": {Status: VisaFree, DaysAllowed: 30},
	"KH": {Status: VisaFree, DaysAllowed: 30},
	"MM": {Status: VisaFree, DaysAllowed: 30},
	"JP": {Status: VisaFree, DaysAllowed: 90},
	"KR": {Status: VisaFree, DaysAllowed: 90},
	"HK": {Status: VisaFree, DaysAllowed: 90},
	"TW": {Status: VisaFree, DaysAllowed: 30},
	"CN": {Status: VisaFree, DaysAllowed: 30},
	"IN": {Status: EVisa, DaysAllowed: 30, Note: "Apply online before travel."},
	"AU": {Status: EVisa, DaysAllowed: 90, Note: "Electronic Travel Authority required."},
}

var tables = map[string]map[string]Info{
	"SG": sgTable,
}

// Static is the table-backed visa service.
type Static struct {
	defaultNationality string
}

// New creates a table-backed visa service.
func New(cfg config.VisaConfig) *Static {
	nat := cfg.DefaultNationality
	if nat == "" {
		nat = "SG"
	}
	return &Static{defaultNationality: strings.ToUpper(nat)}
}

// Lookup implements Service. An empty nationality uses the configured
// default.
func (s *Static) Lookup(_ context.Context, nationality, countryCode string) (*Info, error) {
	if nationality == "" {
		nationality = s.defaultNationality
	}
	table, ok := tables[strings.ToUpper(nationality)]
	if !ok {
		return nil, nil
	}
	info, ok := table[strings.ToUpper(countryCode)]
	if !ok {
		return nil, nil
	}
	return &info, nil
}
