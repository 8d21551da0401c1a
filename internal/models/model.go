package models

import "time"

// Persisted auction status. The time-derived effective type is computed
// separately and may disagree with this column; SOLD and CANCELLED stay
// authoritative for terminal outcomes.
const (
	StatusUpcoming  = "UPCOMING"
	StatusActive    = "ACTIVE"
	StatusEnded     = "ENDED"
	StatusSold      = "SOLD"
	StatusCancelled = "CANCELLED"
)

// Vehicle condition values.
const (
	ConditionNew         = "NEW"
	ConditionUsed        = "USED"
	ConditionNeedsRepair = "NEEDS_REPAIR"
)

type SellerSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// VehicleImage is one structured image row attached to a vehicle.
type VehicleImage struct {
	ID        string
	URL       string
	IsPrimary bool
	Category  string
	SortOrder int
}

// Vehicle carries both the structured image rows and the legacy
// free-form images column (JSON array, CSV or single URL, possibly
// double-encoded). Resolution into canonical URLs happens in the
// images package.
type Vehicle struct {
	ID           string
	Title        string
	Brand        string
	Model        string
	Year         int
	Price        float64
	Condition    string
	Mileage      *int64
	Location     string
	Description  string
	ContactPhone string
	LegacyImages string
	Images       []VehicleImage
	SellerID     string
	Seller       SellerSummary
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Auction struct {
	ID                  string
	Title               string
	Description         string
	VehicleID           string
	SellerID            string
	Seller              SellerSummary
	StartPrice          float64
	CurrentPrice        float64
	MinimumBidIncrement float64
	ReservePrice        *float64
	StartsAt            time.Time
	EndsAt              time.Time
	Status              string
	Featured            bool
	VenueID             *string
	Views               int64
	TotalBids           int64
	CreatedAt           time.Time
}

// Bid is append-only; amounts are assumed monotonically non-decreasing
// in submission order (enforced upstream, not here).
type Bid struct {
	ID         string
	AuctionID  string
	BidderID   string
	BidderName string
	Amount     float64
	PlacedAt   time.Time
}
