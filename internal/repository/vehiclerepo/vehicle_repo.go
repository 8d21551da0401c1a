package vehiclerepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carauctiongo/internal/marketerrors"
	"carauctiongo/internal/models"
)

const defaultQueryTimeout = 3 * time.Second

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

// FindByKey loads a vehicle with its ordered image rows and seller
// summary. Field selection only; image normalization lives in the
// images package.
func (r *Repo) FindByKey(ctx context.Context, id string) (*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const q = `SELECT v.id, v.title, v.brand, v.model, v.year, v.price,
	                  v.condition, v.mileage, coalesce(v.location,''),
	                  coalesce(v.description,''), coalesce(v.contact_phone,''),
	                  coalesce(v.images,''), v.seller_id, v.created_at, v.updated_at,
	                  u.name, coalesce(u.phone,''), coalesce(u.email,''), coalesce(u.avatar_url,'')
	             FROM vehicles v
	             JOIN users u ON u.id = v.seller_id
	            WHERE v.id = $1`
	var (
		v       models.Vehicle
		mileage sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&v.ID, &v.Title, &v.Brand, &v.Model, &v.Year, &v.Price,
		&v.Condition, &mileage, &v.Location, &v.Description, &v.ContactPhone,
		&v.LegacyImages, &v.SellerID, &v.CreatedAt, &v.UpdatedAt,
		&v.Seller.Name, &v.Seller.Phone, &v.Seller.Email, &v.Seller.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vehicle %s: %w", id, marketerrors.ErrNotFound)
	}
	if err != nil {
		return nil, marketerrors.WrapStore("vehicle_find_by_key", err)
	}
	v.Seller.ID = v.SellerID
	if mileage.Valid {
		m := mileage.Int64
		v.Mileage = &m
	}

	imgs, err := r.imageRows(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Images = imgs
	return &v, nil
}

func (r *Repo) imageRows(ctx context.Context, vehicleID string) ([]models.VehicleImage, error) {
	const q = `SELECT id, coalesce(url,''), is_primary, coalesce(category,''), sort_order
	             FROM vehicle_images
	            WHERE vehicle_id = $1
	         ORDER BY is_primary DESC, sort_order ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, vehicleID)
	if err != nil {
		return nil, marketerrors.WrapStore("vehicle_images", err)
	}
	defer rows.Close()

	var imgs []models.VehicleImage
	for rows.Next() {
		var img models.VehicleImage
		if err := rows.Scan(&img.ID, &img.URL, &img.IsPrimary, &img.Category, &img.SortOrder); err != nil {
			return nil, marketerrors.WrapStore("vehicle_images_scan", err)
		}
		imgs = append(imgs, img)
	}
	return imgs, rows.Err()
}

// Update persists the mutable vehicle fields. The legacy images column
// is written back verbatim; resolution stays read-side.
func (r *Repo) Update(ctx context.Context, v *models.Vehicle) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const q = `UPDATE vehicles
	              SET title = $2, brand = $3, model = $4, year = $5, price = $6,
	                  condition = $7, mileage = $8, location = $9, description = $10,
	                  contact_phone = $11, images = $12, updated_at = now()
	            WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, v.ID, v.Title, v.Brand, v.Model, v.Year, v.Price,
		v.Condition, v.Mileage, v.Location, v.Description, v.ContactPhone, v.LegacyImages)
	if err != nil {
		return marketerrors.WrapStore("vehicle_update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("vehicle %s: %w", v.ID, marketerrors.ErrNotFound)
	}
	return nil
}
