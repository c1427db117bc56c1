package source_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/packsight/packsight/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGOrderSourceOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"transaction_id", "order_index", "products"}).
		AddRow("T1", 0, []byte(`[{"title":"mug","length":10,"width":8,"height":9,"weight":250,"quantity":"2"}]`)).
		AddRow(nil, 1, []byte(`[]`))
	mock.ExpectQuery("SELECT transaction_id, order_index, products").
		WithArgs("kc").
		WillReturnRows(rows)

	orders, err := source.NewPGOrderSource(db).Orders(context.Background(), "kc")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "T1", *orders[0].TransactionID)
	assert.Equal(t, 0, orders[0].Index)
	require.Len(t, orders[0].Products, 1)
	assert.Equal(t, "mug", orders[0].Products[0].Title)
	assert.Equal(t, "2", orders[0].Products[0].Quantity)

	assert.Nil(t, orders[1].TransactionID)
	assert.Empty(t, orders[1].Products)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGOrderSourceQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT transaction_id, order_index, products").
		WithArgs("kc").
		WillReturnError(assert.AnError)

	_, err = source.NewPGOrderSource(db).Orders(context.Background(), "kc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list kc orders")
}

func TestPGCatalogSourceCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"record"}).
		AddRow([]byte(`{"url":"/b1","size_cm":"40x30x20","length":40,"width":30,"height":20}`)).
		AddRow([]byte(`{"url":"/b2","length":100,"width":100,"height":100}`))
	mock.ExpectQuery("SELECT record").WillReturnRows(rows)

	records, err := source.NewPGCatalogSource(db).Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "/b1", records[0].StringField("url"))

	length, ok := records[1].Float("length")
	require.True(t, ok)
	assert.Equal(t, 100.0, length)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGCatalogSourceBadRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"record"}).AddRow([]byte(`{not json`))
	mock.ExpectQuery("SELECT record").WillReturnRows(rows)

	_, err = source.NewPGCatalogSource(db).Catalog(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode catalog record")
}
