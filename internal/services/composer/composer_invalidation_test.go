package composer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"carauctiongo/internal/cache/viewcache"
	"carauctiongo/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"
)

func newCachedService(as *fakeAuctionStore, vs *fakeVehicleStore) (*composerService, redismock.ClientMock) {
	rdc, mock := redismock.NewClientMock()
	svc := NewComposerService(as, vs, viewcache.New(rdc), 3*time.Minute, time.Minute, 100).(*composerService)
	svc.now = func() time.Time { return now }
	return svc, mock
}

// expectInvalidate scripts the command sequence one InvalidateAuction
// call issues: drop the detail key, then sweep the list keys.
func expectInvalidate(mock redismock.ClientMock, key string, listKeys ...string) {
	mock.ExpectDel(viewcache.DetailKey(key)).SetVal(1)
	mock.ExpectScan(0, "cav:list:*", 200).SetVal(listKeys, 0)
	if len(listKeys) > 0 {
		mock.ExpectDel(listKeys...).SetVal(int64(len(listKeys)))
	}
}

func TestPlaceBid_InvalidatesBothDetailAliasesAndLists(t *testing.T) {
	as := &fakeAuctionStore{byID: map[string]*models.Auction{"auc1": testAuction()}}
	vs := &fakeVehicleStore{byID: map[string]*models.Vehicle{"veh1": testVehicle()}}
	svc, mock := newCachedService(as, vs)

	listKey := viewcache.ListKey("ACTIVE", nil, "", "created_at", "desc", 10, 0)
	expectInvalidate(mock, "auc1", listKey)
	expectInvalidate(mock, "veh1")

	require.NoError(t, svc.PlaceBid(context.Background(), "auc1", "bidder7", 15500))
	require.Len(t, as.inserted, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceBid_ReadAfterWriteRecomputes(t *testing.T) {
	as := &fakeAuctionStore{byID: map[string]*models.Auction{"auc1": testAuction()}}
	vs := &fakeVehicleStore{byID: map[string]*models.Vehicle{"veh1": testVehicle()}}

	// what a fresh composition of the fixtures serializes to
	want, err := newService(as, vs).GetComposedAuction(context.Background(), "auc1")
	require.NoError(t, err)
	data, err := json.Marshal(want)
	require.NoError(t, err)

	svc, mock := newCachedService(as, vs)
	expectInvalidate(mock, "auc1")
	expectInvalidate(mock, "veh1")
	// the read that follows the write must miss and recompute
	mock.ExpectGet(viewcache.DetailKey("auc1")).RedisNil()
	mock.ExpectSet(viewcache.DetailKey("auc1"), data, 3*time.Minute).SetVal("OK")

	require.NoError(t, svc.PlaceBid(context.Background(), "auc1", "bidder7", 15500))
	got, err := svc.GetComposedAuction(context.Background(), "auc1")
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAuction_ResolvesVehicleAliasWhenPayloadOmitsIt(t *testing.T) {
	as := &fakeAuctionStore{byID: map[string]*models.Auction{"auc1": testAuction()}}
	vs := &fakeVehicleStore{byID: map[string]*models.Vehicle{"veh1": testVehicle()}}
	svc, mock := newCachedService(as, vs)

	expectInvalidate(mock, "auc1")
	expectInvalidate(mock, "veh1")

	edited := &models.Auction{
		ID:       "auc1",
		Title:    "2019 Wagon, price drop",
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
		Status:   models.StatusActive,
		// VehicleID deliberately empty, as update payloads send it
	}
	require.NoError(t, svc.UpdateAuction(context.Background(), edited))
	require.Equal(t, []string{"auc1"}, as.updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVehicle_InvalidatesOwningAuction(t *testing.T) {
	as := &fakeAuctionStore{byVehicle: map[string]*models.Auction{"veh1": testAuction()}}
	vs := &fakeVehicleStore{byID: map[string]*models.Vehicle{"veh1": testVehicle()}}
	svc, mock := newCachedService(as, vs)

	expectInvalidate(mock, "auc1")
	expectInvalidate(mock, "veh1")

	require.NoError(t, svc.UpdateVehicle(context.Background(), testVehicle()))
	require.Equal(t, 1, as.vehicleHits)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVehicle_NoAuctionStillDropsVehicleAlias(t *testing.T) {
	as := &fakeAuctionStore{}
	vs := &fakeVehicleStore{byID: map[string]*models.Vehicle{"veh1": testVehicle()}}
	svc, mock := newCachedService(as, vs)

	expectInvalidate(mock, "veh1")

	require.NoError(t, svc.UpdateVehicle(context.Background(), testVehicle()))
	require.NoError(t, mock.ExpectationsWereMet())
}
