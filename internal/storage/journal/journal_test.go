package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goMarketd/internal/core/offer"
	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

var (
	buyer  = types.BytesToAddress([]byte("buyer-account-000001"))
	seller = types.BytesToAddress([]byte("seller-account-00001"))
)

func sampleReceipt(id string, asset types.AssetID, ts int64) *settlement.Receipt {
	return &settlement.Receipt{
		ID:        id,
		Operation: settlement.OpAcceptOffer,
		Caller:    seller,
		Asset:     asset,
		Offers: []settlement.OfferChange{
			{Asset: asset, Index: 0, Buyer: buyer, Status: offer.StatusAccepted},
		},
		Transfers: []settlement.Transfer{
			{From: buyer, To: seller, Amount: sdkmath.NewInt(9800)},
		},
		Entries:   6,
		Timestamp: ts,
	}
}

func expectSchema(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS receipts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_receipts_asset").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_receipts_operation").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_receipts_created").WillReturnResult(sqlmock.NewResult(0, 0))
}

func newMockJournal(t *testing.T) (*Journal, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	expectSchema(mock)
	j, err := New(context.Background(), sqlx.NewDb(db, "sqlmock"), time.Second, nil)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j, mock
}

func TestSchemaCreated(t *testing.T) {
	_, mock := newMockJournal(t)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS receipts").WillReturnError(assert.AnError)

	_, err = New(context.Background(), sqlx.NewDb(db, "sqlmock"), time.Second, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, assert.AnError)

	var jerr *Error
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, "open", jerr.Operation)
}

func TestRecordInsertsOneRow(t *testing.T) {
	j, mock := newMockJournal(t)

	r := sampleReceipt("3f1c9a52-0000-4000-8000-000000000001", 7, 1_704_067_200)
	mock.ExpectExec("INSERT INTO receipts").
		WithArgs(r.ID, settlement.OpAcceptOffer, seller.String(), int64(7),
			sqlmock.AnyArg(), sqlmock.AnyArg(), "", 6, int64(1_704_067_200)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, j.OnReceipt(context.Background(), r))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFailureIsReported(t *testing.T) {
	j, mock := newMockJournal(t)

	mock.ExpectExec("INSERT INTO receipts").WillReturnError(assert.AnError)

	err := j.Record(context.Background(), sampleReceipt("dup", 1, 1))
	require.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestByAssetDecodesRows(t *testing.T) {
	j, mock := newMockJournal(t)

	want := sampleReceipt("r-1", 7, 100)
	offers, err := json.Marshal(want.Offers)
	require.NoError(t, err)
	transfers, err := json.Marshal(want.Transfers)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "operation", "caller", "asset_id", "offers", "transfers", "detail", "entries", "created_at"}).
		AddRow("r-1", settlement.OpAcceptOffer, seller.String(), int64(7), string(offers), string(transfers), "", 6, int64(100))
	mock.ExpectQuery("SELECT id, operation, caller").WithArgs(int64(7), 10).WillReturnRows(rows)

	got, err := j.ByAsset(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, "r-1", r.ID)
	assert.Equal(t, seller, r.Caller)
	assert.Equal(t, types.AssetID(7), r.Asset)
	require.Len(t, r.Offers, 1)
	assert.Equal(t, offer.StatusAccepted, r.Offers[0].Status)
	assert.Equal(t, buyer, r.Offers[0].Buyer)
	require.Len(t, r.Transfers, 1)
	assert.Equal(t, "9800", r.Transfers[0].Amount.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClosedJournal(t *testing.T) {
	j, mock := newMockJournal(t)
	mock.ExpectClose()
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	require.ErrorIs(t, j.Record(context.Background(), sampleReceipt("x", 1, 1)), ErrClosed)
	_, err := j.Recent(context.Background(), 1)
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := NewConfig(filepath.Join(t.TempDir(), "journal.db"))

	j, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Record(ctx, sampleReceipt("a", 1, 100)))
	require.NoError(t, j.Record(ctx, sampleReceipt("b", 2, 200)))
	require.NoError(t, j.Record(ctx, &settlement.Receipt{
		ID: "c", Operation: settlement.OpSetParams, Caller: buyer, Detail: "buyer_fee_bps=150", Timestamp: 300,
	}))

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	recent, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].ID)
	assert.Equal(t, "b", recent[1].ID)
	assert.Nil(t, recent[0].Offers)
	assert.Equal(t, "buyer_fee_bps=150", recent[0].Detail)

	byAsset, err := j.ByAsset(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, byAsset, 1)
	assert.Equal(t, "a", byAsset[0].ID)

	got, err := j.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, types.AssetID(2), got.Asset)
	assert.Equal(t, 6, got.Entries)

	// ids are primary keys
	require.Error(t, j.Record(ctx, sampleReceipt("a", 1, 400)))
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.Enabled())

	cfg = &Config{Driver: "mysql", DSN: "x", DefaultTimeout: time.Second}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidDriver)

	cfg = &Config{Driver: "sqlite3", DefaultTimeout: time.Second}
	require.ErrorIs(t, cfg.Validate(), ErrMissingDSN)

	cfg = &Config{Driver: "postgresql", DSN: "postgres://localhost/market", MaxOpenConns: 2, MaxIdleConns: 5, DefaultTimeout: time.Second}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidPool)

	cfg = &Config{Driver: "postgresql", DSN: "postgres://localhost/market", DefaultTimeout: time.Second}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.True(t, cfg.Enabled())

	cfg = NewConfig("journal.db")
	cfg.DefaultTimeout = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidTimeout)
}
