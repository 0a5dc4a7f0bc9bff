package panel

import (
	"bytes"
	"encoding/json"
)

// FlexInt decodes a JSON field that should be numeric but occasionally
// arrives as a string, null, or garbage from the panel. Anything that is not
// a usable number coerces to zero: a single malformed field must not abort
// aggregation of the rest of the listing.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}

	// Strings may hold a number, or upstream junk like truncation markers.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		var sn int64
		if err := json.Unmarshal([]byte(s), &sn); err == nil {
			*f = FlexInt(sn)
			return nil
		}
	}

	*f = 0
	return nil
}

// Int64 returns the decoded value.
func (f FlexInt) Int64() int64 {
	return int64(f)
}

// Limits is a server's resource-limit sub-object.
type Limits struct {
	Memory FlexInt `json:"memory"`
	Swap   FlexInt `json:"swap"`
	Disk   FlexInt `json:"disk"`
	IO     FlexInt `json:"io"`
	CPU    FlexInt `json:"cpu"`
}

// FeatureLimits is a server's feature-limit sub-object.
type FeatureLimits struct {
	Databases   FlexInt `json:"databases"`
	Allocations FlexInt `json:"allocations"`
	Backups     FlexInt `json:"backups"`
}

// Server is one provisioned server as reported by the panel.
type Server struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Suspended     bool          `json:"suspended"`
	Limits        Limits        `json:"limits"`
	FeatureLimits FeatureLimits `json:"feature_limits"`
}

// Wire envelope types for the panel's application API.

type serverObject struct {
	Attributes Server `json:"attributes"`
}

type serverList struct {
	Data []serverObject `json:"data"`
}

type userObject struct {
	Attributes struct {
		ID            int64 `json:"id"`
		Relationships struct {
			Servers serverList `json:"servers"`
		} `json:"relationships"`
	} `json:"attributes"`
}
