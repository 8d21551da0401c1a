package auctionrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"carauctiongo/internal/marketerrors"
	"carauctiongo/internal/models"
)

const defaultQueryTimeout = 3 * time.Second

// selectCols is shared by every single/list auction query so scanning
// stays in one place.
const selectCols = `a.id, a.title, a.description, a.vehicle_id, a.seller_id,
	       a.start_price, a.current_price, a.min_increment, a.reserve_price,
	       a.starts_at, a.ends_at, a.status, a.featured, a.venue_id,
	       a.views, a.total_bids, a.created_at,
	       u.name, coalesce(u.phone,''), coalesce(u.email,''), coalesce(u.avatar_url,'')`

const baseSelect = `SELECT ` + selectCols + `
	  FROM auctions a
	  JOIN users u ON u.id = a.seller_id`

var sortColumns = map[string]string{
	"created_at":    "a.created_at",
	"current_price": "a.current_price",
	"ends_at":       "a.ends_at",
	"views":         "a.views",
}

// ListFilter carries every parameter of a list query; the cache key is
// derived from the same set.
type ListFilter struct {
	Status   string
	Featured *bool
	SellerID string
	SortKey  string
	SortDir  string
	Limit    int
	Offset   int
}

type Repo struct {
	db      *sql.DB
	timeout time.Duration
}

func New(db *sql.DB, timeout time.Duration) *Repo {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &Repo{db: db, timeout: timeout}
}

// FindByKey loads one auction with its seller summary by primary key.
func (r *Repo) FindByKey(ctx context.Context, id string) (*models.Auction, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, baseSelect+` WHERE a.id = $1`, id)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("auction %s: %w", id, marketerrors.ErrNotFound)
	}
	if err != nil {
		return nil, marketerrors.WrapStore("auction_find_by_key", err)
	}
	return a, nil
}

// FindByVehicleKey is the named fallback of the dual lookup: resolve
// an auction through the vehicle it sells.
func (r *Repo) FindByVehicleKey(ctx context.Context, vehicleID string) (*models.Auction, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, baseSelect+` WHERE a.vehicle_id = $1`, vehicleID)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("auction for vehicle %s: %w", vehicleID, marketerrors.ErrNotFound)
	}
	if err != nil {
		return nil, marketerrors.WrapStore("auction_find_by_vehicle_key", err)
	}
	return a, nil
}

// List returns one page plus the total match count. Auctions attached
// to a venue/yard grouping are always excluded.
func (r *Repo) List(ctx context.Context, f ListFilter) ([]models.Auction, int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	where := []string{"a.venue_id IS NULL"}
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		where = append(where, fmt.Sprintf("a.featured = $%d", len(args)))
	}
	if f.SellerID != "" {
		args = append(args, f.SellerID)
		where = append(where, fmt.Sprintf("a.seller_id = $%d", len(args)))
	}
	cond := " WHERE " + strings.Join(where, " AND ")

	var total int
	countQ := `SELECT count(*) FROM auctions a` + cond
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, marketerrors.WrapStore("auction_list_count", err)
	}

	col, ok := sortColumns[f.SortKey]
	if !ok {
		col = "a.created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.SortDir, "asc") {
		dir = "ASC"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit, f.Offset)
	q := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		baseSelect, cond, col, dir, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, marketerrors.WrapStore("auction_list", err)
	}
	defer rows.Close()

	list := make([]models.Auction, 0, limit)
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, 0, marketerrors.WrapStore("auction_list_scan", err)
		}
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, marketerrors.WrapStore("auction_list_rows", err)
	}
	return list, total, nil
}

// TopBids returns the highest bids for an auction with bidder display
// names, highest amount first.
func (r *Repo) TopBids(ctx context.Context, auctionID string, limit int) ([]models.Bid, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}
	const q = `SELECT b.id, b.auction_id, b.bidder_id, coalesce(u.name,''), b.amount, b.placed_at
	             FROM bids b
	        LEFT JOIN users u ON u.id = b.bidder_id
	            WHERE b.auction_id = $1
	         ORDER BY b.amount DESC, b.placed_at ASC
	            LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, auctionID, limit)
	if err != nil {
		return nil, marketerrors.WrapStore("auction_top_bids", err)
	}
	defer rows.Close()

	bids := make([]models.Bid, 0, limit)
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.BidderName, &b.Amount, &b.PlacedAt); err != nil {
			return nil, marketerrors.WrapStore("auction_top_bids_scan", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// InsertBid appends a bid and mirrors its amount into the auction row
// in one transaction. Bid validity (increment, auction open) is the
// caller's concern.
func (r *Repo) InsertBid(ctx context.Context, b models.Bid) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return marketerrors.WrapStore("bid_insert_begin", err)
	}
	defer tx.Rollback()

	const ins = `INSERT INTO bids (id, auction_id, bidder_id, amount, placed_at)
	             VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, ins, b.ID, b.AuctionID, b.BidderID, b.Amount, b.PlacedAt); err != nil {
		return marketerrors.WrapStore("bid_insert", err)
	}

	const upd = `UPDATE auctions
	                SET current_price = greatest(current_price, $2),
	                    total_bids = total_bids + 1
	              WHERE id = $1`
	if _, err := tx.ExecContext(ctx, upd, b.AuctionID, b.Amount); err != nil {
		return marketerrors.WrapStore("bid_insert_price", err)
	}
	if err := tx.Commit(); err != nil {
		return marketerrors.WrapStore("bid_insert_commit", err)
	}
	return nil
}

// Update persists the mutable auction fields.
func (r *Repo) Update(ctx context.Context, a *models.Auction) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const q = `UPDATE auctions
	              SET title = $2, description = $3, start_price = $4,
	                  current_price = $5, min_increment = $6, reserve_price = $7,
	                  starts_at = $8, ends_at = $9, status = $10, featured = $11
	            WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, a.ID, a.Title, a.Description, a.StartPrice,
		a.CurrentPrice, a.MinimumBidIncrement, a.ReservePrice,
		a.StartsAt, a.EndsAt, a.Status, a.Featured)
	if err != nil {
		return marketerrors.WrapStore("auction_update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("auction %s: %w", a.ID, marketerrors.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(row rowScanner) (*models.Auction, error) {
	var (
		a       models.Auction
		reserve sql.NullFloat64
		venue   sql.NullString
	)
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.VehicleID, &a.SellerID,
		&a.StartPrice, &a.CurrentPrice, &a.MinimumBidIncrement, &reserve,
		&a.StartsAt, &a.EndsAt, &a.Status, &a.Featured, &venue,
		&a.Views, &a.TotalBids, &a.CreatedAt,
		&a.Seller.Name, &a.Seller.Phone, &a.Seller.Email, &a.Seller.AvatarURL)
	if err != nil {
		return nil, err
	}
	a.Seller.ID = a.SellerID
	if reserve.Valid {
		v := reserve.Float64
		a.ReservePrice = &v
	}
	if venue.Valid {
		v := venue.String
		a.VenueID = &v
	}
	return &a, nil
}
