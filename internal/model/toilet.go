package model

import (
	"strings"
	"time"
)

// Toilet is a public toilet location with its community trust state.
type Toilet struct {
	ID           int64   `json:"id"`
	ExternalID   string  `json:"externalId"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Name         string  `json:"name,omitempty"`
	Operator     string  `json:"operator,omitempty"`
	Fee          string  `json:"fee,omitempty"`
	OpeningHours string  `json:"openingHours,omitempty"`
	Wheelchair   string  `json:"wheelchair,omitempty"`
	IsFree       bool    `json:"isFree"`
	IsPaid       bool    `json:"isPaid"`
	IsAccessible bool    `json:"isAccessible"`

	IsUserCreated bool   `json:"isUserCreated"`
	SubmitterID   *int64 `json:"submitterId,omitempty"`

	ReportCount int  `json:"reportCount"`
	VerifyCount int  `json:"verifyCount"`
	IsVerified  bool `json:"isVerified"`
	IsHidden    bool `json:"isHidden"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewToilet is the validated row handed to a store for insertion.
type NewToilet struct {
	ExternalID    string
	Lat           float64
	Lon           float64
	Name          string
	Operator      string
	Fee           string
	OpeningHours  string
	Wheelchair    string
	IsFree        bool
	IsPaid        bool
	IsAccessible  bool
	IsUserCreated bool
	SubmitterID   *int64
}

// SubmitToiletRequest is the API request body for adding a toilet.
// Lat/Lng is the claimed toilet position, UserLat/UserLng the submitter's.
type SubmitToiletRequest struct {
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	UserLat      *float64 `json:"userLat"`
	UserLng      *float64 `json:"userLng"`
	Name         string   `json:"name"`
	Operator     string   `json:"operator"`
	Fee          string   `json:"fee"`
	OpeningHours string   `json:"openingHours"`
	Wheelchair   string   `json:"wheelchair"`
	IsFree       *bool    `json:"isFree"`
	IsPaid       *bool    `json:"isPaid"`
	IsAccessible *bool    `json:"isAccessible"`
}

// SubmitToiletInput is a SubmitToiletRequest after boundary validation.
type SubmitToiletInput struct {
	Lat, Lon         float64
	UserLat, UserLon float64
	Name             string
	Operator         string
	Fee              string
	OpeningHours     string
	Wheelchair       string
	IsFree           *bool
	IsPaid           *bool
	IsAccessible     *bool
}

// ToNewToilet fills the derived flags and returns the insertable row.
// Explicit booleans win over values derived from fee and wheelchair.
func (in SubmitToiletInput) ToNewToilet(externalID string, submitterID *int64) NewToilet {
	isFree, isPaid := FeeFlags(in.Fee)
	if in.IsFree != nil {
		isFree = *in.IsFree
	}
	if in.IsPaid != nil {
		isPaid = *in.IsPaid
	}
	isAccessible := AccessibleFlag(in.Wheelchair)
	if in.IsAccessible != nil {
		isAccessible = *in.IsAccessible
	}
	return NewToilet{
		ExternalID:    externalID,
		Lat:           in.Lat,
		Lon:           in.Lon,
		Name:          in.Name,
		Operator:      in.Operator,
		Fee:           in.Fee,
		OpeningHours:  in.OpeningHours,
		Wheelchair:    in.Wheelchair,
		IsFree:        isFree,
		IsPaid:        isPaid,
		IsAccessible:  isAccessible,
		IsUserCreated: true,
		SubmitterID:   submitterID,
	}
}

// FeeFlags derives isFree/isPaid from an OSM-style fee tag.
func FeeFlags(fee string) (isFree, isPaid bool) {
	f := strings.ToLower(strings.TrimSpace(fee))
	switch f {
	case "":
		return false, false
	case "no", "0":
		return true, false
	case "yes":
		return false, true
	}
	if strings.Contains(f, "€") || strings.Contains(f, "eur") || strings.Contains(f, "cent") {
		return false, true
	}
	return false, false
}

// AccessibleFlag derives isAccessible from an OSM-style wheelchair tag.
func AccessibleFlag(wheelchair string) bool {
	w := strings.ToLower(strings.TrimSpace(wheelchair))
	return w == "yes" || w == "designated"
}
