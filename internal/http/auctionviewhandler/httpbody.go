package auctionviewhandler

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type ListAuctionsQuery struct {
	Status   string `form:"status"   binding:"omitempty,oneof=UPCOMING ACTIVE ENDED SOLD CANCELLED"`
	Featured *bool  `form:"featured" binding:"omitempty"`
	SellerID string `form:"seller_id" binding:"omitempty"`
	Sort     string `form:"sort,default=created_at" binding:"omitempty,oneof=created_at current_price ends_at views"`
	Dir      string `form:"dir,default=desc"  binding:"omitempty,oneof=asc desc"`
	Limit    int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Page     int    `form:"page,default=1"    binding:"gte=1"`
} // @name ListAuctionsQuery

type PlaceBidBody struct {
	BidderID string  `json:"bidder_id" binding:"required"      example:"user123"`
	Amount   float64 `json:"amount"    binding:"required,gt=0" example:"15500"`
} // @name PlaceBidRequest

type UpdateAuctionBody struct {
	Title               string    `json:"title"        binding:"required"`
	Description         string    `json:"description"`
	StartPrice          float64   `json:"start_price"  binding:"gte=0"`
	CurrentPrice        float64   `json:"current_price" binding:"gte=0"`
	MinimumBidIncrement float64   `json:"minimum_bid_increment" binding:"gte=0"`
	ReservePrice        *float64  `json:"reserve_price"`
	StartsAt            time.Time `json:"starts_at" binding:"required" example:"2026-03-01T12:00:00Z"`
	EndsAt              time.Time `json:"ends_at"   binding:"required,gtfield=StartsAt" example:"2026-03-02T12:00:00Z"`
	Status              string    `json:"status"    binding:"required,oneof=UPCOMING ACTIVE ENDED SOLD CANCELLED"`
	Featured            bool      `json:"featured"`
} // @name UpdateAuctionRequest

type UpdateVehicleBody struct {
	Title        string  `json:"title"     binding:"required"`
	Brand        string  `json:"brand"     binding:"required"`
	Model        string  `json:"model"     binding:"required"`
	Year         int     `json:"year"      binding:"required,gte=1900"`
	Price        float64 `json:"price"     binding:"gte=0"`
	Condition    string  `json:"condition" binding:"required,oneof=NEW USED NEEDS_REPAIR"`
	Mileage      *int64  `json:"mileage"`
	Location     string  `json:"location"`
	Description  string  `json:"description"`
	ContactPhone string  `json:"contact_phone"`
	Images       string  `json:"images"`
} // @name UpdateVehicleRequest

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
} // @name Pagination
