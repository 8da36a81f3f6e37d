package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrust/review-verify/src/RVApi/types"
)

func seedReview(t *testing.T, ledger *ReviewLedger, txRef, label string, rating int, anchored bool) *types.Review {
	t.Helper()
	r := &types.Review{
		UserID:        "U1",
		ProductID:     "P001",
		Body:          "solid product, works as advertised",
		Rating:        rating,
		Label:         label,
		TxRef:         txRef,
		PurchaseTxRef: "0xpurchase",
		PurchaseID:    1,
		Anchored:      anchored,
	}
	require.NoError(t, ledger.Create(r))
	return r
}

func TestReviewTxRefUniqueness(t *testing.T) {
	db := newTestDB(t)
	ledger := NewReviewLedger(db)

	seedReview(t, ledger, "0xaaa", types.LabelReal, 5, false)

	dup := &types.Review{
		UserID:        "U2",
		ProductID:     "P002",
		Body:          "different text entirely",
		Rating:        1,
		Label:         types.LabelFake,
		TxRef:         "0xaaa",
		PurchaseTxRef: "0xother",
		PurchaseID:    2,
	}
	err := ledger.Create(dup)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestFindByTxRef(t *testing.T) {
	db := newTestDB(t)
	ledger := NewReviewLedger(db)

	seedReview(t, ledger, "0xbbb", types.LabelReal, 4, false)

	got, err := ledger.FindByTxRef("0xbbb")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)

	_, err = ledger.FindByTxRef("0xmissing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordAnchorOnce(t *testing.T) {
	db := newTestDB(t)
	ledger := NewReviewLedger(db)

	r := seedReview(t, ledger, "0xccc", types.LabelReal, 5, false)

	require.NoError(t, ledger.RecordAnchor(r.ID, "ledger-ref-1"))

	got, err := ledger.FindByTxRef("0xccc")
	require.NoError(t, err)
	assert.True(t, got.Anchored)
	require.NotNil(t, got.AnchorRef)
	assert.Equal(t, "ledger-ref-1", *got.AnchorRef)

	// a second anchor write must not overwrite the reference
	err = ledger.RecordAnchor(r.ID, "ledger-ref-2")
	assert.ErrorIs(t, err, ErrConflict)
	got, err = ledger.FindByTxRef("0xccc")
	require.NoError(t, err)
	assert.Equal(t, "ledger-ref-1", *got.AnchorRef)
}

func TestListByProductFilters(t *testing.T) {
	db := newTestDB(t)
	ledger := NewReviewLedger(db)

	seedReview(t, ledger, "0x001", types.LabelReal, 5, true)
	seedReview(t, ledger, "0x002", types.LabelFake, 1, false)
	seedReview(t, ledger, "0x003", types.LabelReal, 3, false)

	all, total, err := ledger.ListByProduct("P001", 1, 10, "newest", "all")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.EqualValues(t, 3, total)

	real, total, err := ledger.ListByProduct("P001", 1, 10, "newest", "real")
	require.NoError(t, err)
	assert.Len(t, real, 2)
	assert.EqualValues(t, 2, total)

	fake, _, err := ledger.ListByProduct("P001", 1, 10, "newest", "fake")
	require.NoError(t, err)
	require.Len(t, fake, 1)
	assert.Equal(t, types.LabelFake, fake[0].Label)

	sorted, _, err := ledger.ListByProduct("P001", 1, 10, "highest_rated", "all")
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, 5, sorted[0].Rating)
	assert.Equal(t, 1, sorted[2].Rating)
}

func TestStatsByProduct(t *testing.T) {
	db := newTestDB(t)
	ledger := NewReviewLedger(db)

	seedReview(t, ledger, "0x001", types.LabelReal, 5, true)
	seedReview(t, ledger, "0x002", types.LabelFake, 1, false)
	seedReview(t, ledger, "0x003", types.LabelReal, 3, false)

	stats, err := ledger.StatsByProduct("P001")
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.TotalReviews)
	assert.EqualValues(t, 2, stats.RealReviews)
	assert.EqualValues(t, 1, stats.FakeReviews)
	assert.EqualValues(t, 1, stats.AnchoredCount)
	assert.InDelta(t, 3.0, stats.AverageRating, 0.01)
	assert.EqualValues(t, 1, stats.Rating1)
	assert.EqualValues(t, 1, stats.Rating3)
	assert.EqualValues(t, 1, stats.Rating5)

	empty, err := ledger.StatsByProduct("P999")
	require.NoError(t, err)
	assert.EqualValues(t, 0, empty.TotalReviews)
	assert.EqualValues(t, 0, empty.AverageRating)
}
