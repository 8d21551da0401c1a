package vehiclerepo

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"carauctiongo/internal/marketerrors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var vehicleColumns = []string{
	"id", "title", "brand", "model", "year", "price",
	"condition", "mileage", "location", "description", "contact_phone",
	"images", "seller_id", "created_at", "updated_at",
	"name", "phone", "email", "avatar_url",
}

var imageColumns = []string{"id", "url", "is_primary", "category", "sort_order"}

func vehicleRow() []driver.Value {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []driver.Value{
		"veh1", "2019 Wagon", "Volvo", "V60", 2019, 21000.0,
		"USED", int64(64000), "Rotterdam", "one owner", "+333",
		`["a.jpg"]`, "seller1", now, now,
		"Dana", "+222", "dana@example.com", "",
	}
}

func TestFindByKey_WithImageRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := New(db, time.Second)

	mock.ExpectQuery(`(?s)SELECT .+ FROM vehicles v.+WHERE v\.id = \$1`).
		WithArgs("veh1").
		WillReturnRows(sqlmock.NewRows(vehicleColumns).AddRow(vehicleRow()...))
	mock.ExpectQuery(`(?s)SELECT .+ FROM vehicle_images.+ORDER BY is_primary DESC, sort_order ASC`).
		WithArgs("veh1").
		WillReturnRows(sqlmock.NewRows(imageColumns).
			AddRow("img2", "front.jpg", true, "exterior", 1).
			AddRow("img1", "dash.jpg", false, "interior", 0))

	v, err := repo.FindByKey(context.Background(), "veh1")
	require.NoError(t, err)
	require.Equal(t, "Volvo", v.Brand)
	require.Equal(t, `["a.jpg"]`, v.LegacyImages)
	require.Equal(t, "seller1", v.Seller.ID)
	require.NotNil(t, v.Mileage)
	require.Equal(t, int64(64000), *v.Mileage)
	require.Len(t, v.Images, 2)
	require.True(t, v.Images[0].IsPrimary, "primary image first")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByKey_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := New(db, time.Second)

	mock.ExpectQuery(`(?s)SELECT .+ FROM vehicles v.+WHERE v\.id = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(vehicleColumns))

	_, err = repo.FindByKey(context.Background(), "ghost")
	require.ErrorIs(t, err, marketerrors.ErrNotFound)
}

func TestFindByKey_TimeoutIsTransient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := New(db, time.Second)

	mock.ExpectQuery(`(?s)SELECT .+ FROM vehicles v.+WHERE v\.id = \$1`).
		WithArgs("veh1").
		WillReturnError(context.DeadlineExceeded)

	_, err = repo.FindByKey(context.Background(), "veh1")
	require.ErrorIs(t, err, marketerrors.ErrStoreUnavailable)
}
