package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
)

func TestEncodeDecodeValue_RoundTripsEveryKind(t *testing.T) {
	cases := []itemcollection.Value{
		itemcollection.VString("hello"),
		itemcollection.VInt64(42),
		itemcollection.VFloat64(3.5),
		itemcollection.VDecimal(decimal.RequireFromString("19.99")),
		itemcollection.VBool(true),
		itemcollection.VInstant(time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)),
		itemcollection.VBytes([]byte{0x01, 0x02, 0xff}),
		itemcollection.VList([]itemcollection.Value{itemcollection.VInt64(1), itemcollection.VString("x")}),
		itemcollection.VMap(map[string][]itemcollection.Value{"k": {itemcollection.VBool(false)}}),
	}

	for _, v := range cases {
		encoded, err := encodeValue(v)
		require.NoError(t, err)

		decoded, err := decodeValue(encoded)
		require.NoError(t, err)

		assert.True(t, v.Equal(decoded), "kind %d did not round-trip: got %+v", v.Kind, decoded)
	}
}

func TestEncodeDecodeDocument_PreservesTypedValuesNotJustStrings(t *testing.T) {
	doc := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemUniqueID: "wi-1",
		"amount":                   int64(42),
		"rate":                     3.5,
		"active":                   true,
		"price":                    decimal.RequireFromString("19.99"),
	})

	payload, err := encodeDocument(doc)
	require.NoError(t, err)

	decoded, err := decodeDocument(payload)
	require.NoError(t, err)

	amount := decoded.GetItemValue("amount")
	require.Len(t, amount, 1)
	assert.Equal(t, itemcollection.KindInt64, amount[0].Kind)
	assert.Equal(t, int64(42), amount[0].I64)

	active := decoded.GetItemValue("active")
	require.Len(t, active, 1)
	assert.Equal(t, itemcollection.KindBool, active[0].Kind)
	assert.True(t, active[0].Boolean)

	price := decoded.GetItemValue("price")
	require.Len(t, price, 1)
	assert.Equal(t, itemcollection.KindDecimal, price[0].Kind)
	assert.True(t, decimal.RequireFromString("19.99").Equal(price[0].Dec))
}

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewPostgresStore(sqlxDB), mock
}

func TestPostgresStore_Save_UpsertsEncodedPayload(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	doc := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemUniqueID: "wi-1",
		"$type":                    "workitem",
		"amount":                   int64(7),
	})

	mock.ExpectExec("INSERT INTO workflow_documents").
		WithArgs("wi-1", "workitem", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	saved, err := s.Save(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "wi-1", saved.GetItemValueString(itemcollection.ItemUniqueID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load_DecodesTypedPayload(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	original := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemUniqueID: "wi-2",
		"count":                    int64(3),
	})
	payload, err := encodeDocument(original)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"unique_id", "doc_type", "modified", "payload"}).
		AddRow("wi-2", "workitem", "2026-07-31T00:00:00Z", payload)
	mock.ExpectQuery("SELECT unique_id, doc_type, modified::text AS modified, payload").
		WithArgs("wi-2").
		WillReturnRows(rows)

	doc, ok, err := s.Load(context.Background(), "wi-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, itemcollection.KindInt64, doc.GetItemValue("count")[0].Kind)
	assert.Equal(t, 3, doc.GetItemValueInt("count"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load_NotFoundReturnsOKFalse(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT unique_id, doc_type, modified::text AS modified, payload").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, ok, err := s.Load(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}
