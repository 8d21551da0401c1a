package composer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carauctiongo/internal/cache/viewcache"
	"carauctiongo/internal/images"
	"carauctiongo/internal/marketerrors"
	"carauctiongo/internal/models"
	"carauctiongo/internal/progress"
	"carauctiongo/internal/repository/auctionrepo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuctionStore is the injected storage contract for auctions. The
// auctionrepo adapter satisfies it; tests supply doubles.
type AuctionStore interface {
	FindByKey(ctx context.Context, id string) (*models.Auction, error)
	FindByVehicleKey(ctx context.Context, vehicleID string) (*models.Auction, error)
	List(ctx context.Context, f auctionrepo.ListFilter) ([]models.Auction, int, error)
	TopBids(ctx context.Context, auctionID string, limit int) ([]models.Bid, error)
	InsertBid(ctx context.Context, b models.Bid) error
	Update(ctx context.Context, a *models.Auction) error
}

type VehicleStore interface {
	FindByKey(ctx context.Context, id string) (*models.Vehicle, error)
	Update(ctx context.Context, v *models.Vehicle) error
}

// CarView is the vehicle slice of the composed view, images already
// resolved to canonical URLs.
type CarView struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Brand       string               `json:"brand"`
	Model       string               `json:"model"`
	Year        int                  `json:"year"`
	Price       float64              `json:"price"`
	Condition   string               `json:"condition"`
	Mileage     *int64               `json:"mileage,omitempty"`
	Location    string               `json:"location,omitempty"`
	Images      []string             `json:"images"`
	Seller      models.SellerSummary `json:"seller"`
}

// ComposedAuctionView is the merged read model served to clients.
// auctionType is the time-derived classification; status carries the
// persisted column, which stays authoritative for SOLD and CANCELLED.
type ComposedAuctionView struct {
	ID                  string            `json:"id"`
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	StartPrice          float64           `json:"startPrice"`
	CurrentPrice        float64           `json:"currentPrice"`
	StartingBid         float64           `json:"startingBid"`
	CurrentBid          float64           `json:"currentBid"`
	MinimumBidIncrement float64           `json:"minimumBidIncrement"`
	ReservePrice        *float64          `json:"reservePrice,omitempty"`
	AuctionType         string            `json:"auctionType"`
	Status              string            `json:"status"`
	AuctionStartTime    time.Time         `json:"auctionStartTime"`
	AuctionEndTime      time.Time         `json:"auctionEndTime"`
	TotalBids           int64             `json:"totalBids"`
	BidCount            int64             `json:"bidCount"`
	Featured            bool              `json:"featured"`
	Views               int64             `json:"views"`
	ContactPhone        string            `json:"contactPhone,omitempty"`
	WinnerName          string            `json:"winnerName,omitempty"`
	Progress            progress.Snapshot `json:"progress"`
	Car                 CarView           `json:"car"`
}

type ComposedList struct {
	Items []ComposedAuctionView `json:"items"`
	Total int                   `json:"total"`
}

type IComposerService interface {
	GetComposedAuction(ctx context.Context, key string) (*ComposedAuctionView, error)
	ListComposedAuctions(ctx context.Context, f auctionrepo.ListFilter) (*ComposedList, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) error
	UpdateAuction(ctx context.Context, a *models.Auction) error
	UpdateVehicle(ctx context.Context, v *models.Vehicle) error
}

type composerService struct {
	auctions     AuctionStore
	vehicles     VehicleStore
	cache        *viewcache.Cache
	detailTTL    time.Duration
	listTTL      time.Duration
	minIncrement float64
	now          func() time.Time
}

// NewComposerService wires the composition core. cache may be nil, in
// which case every read computes directly.
func NewComposerService(auctions AuctionStore, vehicles VehicleStore, cache *viewcache.Cache,
	detailTTL, listTTL time.Duration, minIncrementFallback float64) IComposerService {
	return &composerService{
		auctions:     auctions,
		vehicles:     vehicles,
		cache:        cache,
		detailTTL:    detailTTL,
		listTTL:      listTTL,
		minIncrement: minIncrementFallback,
		now:          time.Now,
	}
}

// GetComposedAuction accepts either an auction key or a vehicle key.
func (s *composerService) GetComposedAuction(ctx context.Context, key string) (*ComposedAuctionView, error) {
	if s.cache == nil {
		return s.composeByKey(ctx, key)
	}
	// Keep the time-derived type from outliving its transition: the
	// entry's TTL is capped at the next upcoming/live/ended boundary.
	return viewcache.GetOrComputeTTL(ctx, s.cache, viewcache.DetailKey(key), s.detailTTL,
		func(ctx context.Context) (*ComposedAuctionView, time.Duration, error) {
			view, err := s.composeByKey(ctx, key)
			if err != nil {
				return nil, 0, err
			}
			return view, s.boundaryCappedTTL(view), nil
		})
}

func (s *composerService) boundaryCappedTTL(view *ComposedAuctionView) time.Duration {
	var untilBoundary time.Duration
	now := s.now()
	switch view.AuctionType {
	case progress.TypeUpcoming:
		untilBoundary = view.AuctionStartTime.Sub(now)
	case progress.TypeLive:
		untilBoundary = view.AuctionEndTime.Sub(now)
	default:
		return s.detailTTL
	}
	if untilBoundary < time.Second {
		untilBoundary = time.Second
	}
	if untilBoundary < s.detailTTL {
		return untilBoundary
	}
	return s.detailTTL
}

func (s *composerService) composeByKey(ctx context.Context, key string) (*ComposedAuctionView, error) {
	a, err := s.auctions.FindByKey(ctx, key)
	if errors.Is(err, marketerrors.ErrNotFound) {
		a, err = s.auctions.FindByVehicleKey(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	return s.compose(ctx, a)
}

func (s *composerService) compose(ctx context.Context, a *models.Auction) (*ComposedAuctionView, error) {
	v, err := s.vehicles.FindByKey(ctx, a.VehicleID)
	if errors.Is(err, marketerrors.ErrNotFound) {
		zap.L().Error("auction_vehicle_integrity",
			zap.String("auction_id", a.ID), zap.String("vehicle_id", a.VehicleID))
		return nil, fmt.Errorf("auction %s vehicle %s: %w",
			a.ID, a.VehicleID, marketerrors.ErrDataIntegrity)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	minInc := a.MinimumBidIncrement
	if minInc <= 0 {
		minInc = s.minIncrement
	}

	view := &ComposedAuctionView{
		ID:                  a.ID,
		Title:               a.Title,
		Description:         a.Description,
		StartPrice:          a.StartPrice,
		CurrentPrice:        a.CurrentPrice,
		StartingBid:         a.StartPrice,
		CurrentBid:          a.CurrentPrice,
		MinimumBidIncrement: minInc,
		ReservePrice:        a.ReservePrice,
		AuctionType:         progress.EffectiveType(now, a.StartsAt, a.EndsAt),
		Status:              a.Status,
		AuctionStartTime:    a.StartsAt,
		AuctionEndTime:      a.EndsAt,
		TotalBids:           a.TotalBids,
		BidCount:            a.TotalBids,
		Featured:            a.Featured,
		Views:               a.Views,
		ContactPhone:        pickContact(v, a),
		Progress: progress.Compute(now, progress.Inputs{
			StartsAt:     a.StartsAt,
			EndsAt:       a.EndsAt,
			StartPrice:   a.StartPrice,
			CurrentPrice: a.CurrentPrice,
			ReservePrice: a.ReservePrice,
		}),
		Car: CarView{
			ID:        v.ID,
			Title:     v.Title,
			Brand:     v.Brand,
			Model:     v.Model,
			Year:      v.Year,
			Price:     v.Price,
			Condition: v.Condition,
			Mileage:   v.Mileage,
			Location:  v.Location,
			Images:    images.Resolve(v),
			Seller:    v.Seller,
		},
	}

	if a.Status == models.StatusSold {
		bids, err := s.auctions.TopBids(ctx, a.ID, 1)
		if err != nil {
			return nil, err
		}
		if len(bids) > 0 {
			view.WinnerName = bids[0].BidderName
		}
	}
	return view, nil
}

func pickContact(v *models.Vehicle, a *models.Auction) string {
	switch {
	case v.ContactPhone != "":
		return v.ContactPhone
	case v.Seller.Phone != "":
		return v.Seller.Phone
	default:
		return a.Seller.Phone
	}
}

func (s *composerService) ListComposedAuctions(ctx context.Context, f auctionrepo.ListFilter) (*ComposedList, error) {
	produce := func(ctx context.Context) (*ComposedList, error) {
		auctions, total, err := s.auctions.List(ctx, f)
		if err != nil {
			return nil, err
		}
		items := make([]ComposedAuctionView, 0, len(auctions))
		for i := range auctions {
			view, err := s.compose(ctx, &auctions[i])
			if err != nil {
				return nil, err
			}
			items = append(items, *view)
		}
		return &ComposedList{Items: items, Total: total}, nil
	}

	if s.cache == nil {
		return produce(ctx)
	}
	key := viewcache.ListKey(f.Status, f.Featured, f.SellerID, f.SortKey, f.SortDir, f.Limit, f.Offset)
	return viewcache.GetOrCompute(ctx, s.cache, key, s.listTTL, produce)
}

// PlaceBid appends a bid and synchronously drops every cache entry the
// write can have changed before returning.
func (s *composerService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) error {
	a, err := s.auctions.FindByKey(ctx, auctionID)
	if err != nil {
		return err
	}
	bid := models.Bid{
		ID:        uuid.NewString(),
		AuctionID: a.ID,
		BidderID:  bidderID,
		Amount:    amount,
		PlacedAt:  s.now().UTC(),
	}
	if err := s.auctions.InsertBid(ctx, bid); err != nil {
		return err
	}
	s.invalidate(ctx, a.ID, a.VehicleID)
	return nil
}

func (s *composerService) UpdateAuction(ctx context.Context, a *models.Auction) error {
	vehicleID := a.VehicleID
	if vehicleID == "" {
		// partial update payloads omit the vehicle ref; the vehicle-key
		// cache alias still has to go
		if existing, err := s.auctions.FindByKey(ctx, a.ID); err == nil {
			vehicleID = existing.VehicleID
		}
	}
	if err := s.auctions.Update(ctx, a); err != nil {
		return err
	}
	s.invalidate(ctx, a.ID, vehicleID)
	return nil
}

func (s *composerService) UpdateVehicle(ctx context.Context, v *models.Vehicle) error {
	if err := s.vehicles.Update(ctx, v); err != nil {
		return err
	}
	// The composed view is keyed by auction id or vehicle id; both
	// aliases go, plus the lists, before the write returns.
	auctionID := ""
	if a, err := s.auctions.FindByVehicleKey(ctx, v.ID); err == nil {
		auctionID = a.ID
	}
	s.invalidate(ctx, auctionID, v.ID)
	return nil
}

func (s *composerService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.cache.InvalidateAuction(ctx, k); err != nil {
			zap.L().Warn("view_invalidate_failed", zap.String("key", k), zap.Error(err))
		}
	}
}
