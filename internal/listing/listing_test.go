package listing

import (
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priced(id string, amount int64) Listing {
	return Listing{ID: id, Title: "item " + id, Price: Money{Amount: amount, Divisor: 100, Currency: "GBP"}, Source: SourceEbay}
}

// wholePounds builds sorted listings priced 1, 2, ..., n.
func wholePounds(n int) []Listing {
	out := make([]Listing, n)
	for i := range out {
		out[i] = priced(fmt.Sprint(i+1), int64(i+1)*100)
	}
	return out
}

func ids(listings []Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func TestMoneyDecimal(t *testing.T) {
	got, err := Money{Amount: 1299, Divisor: 100}.Decimal()
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("12.99")))

	for _, div := range []int64{0, -100} {
		_, err := Money{Amount: 1, Divisor: div}.Decimal()
		assert.ErrorIs(t, err, ErrInvalidDivisor)
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		amount  int64
		divisor int64
	}{
		{"12.99", 1299, 100},
		{"12.5", 1250, 100},
		{"7", 700, 100},
		{"0.125", 125, 1000},
	}
	for _, tt := range tests {
		m, err := ParseMoney(tt.in, "GBP")
		require.NoError(t, err, tt.in)
		assert.Equal(t, Money{Amount: tt.amount, Divisor: tt.divisor, Currency: "GBP"}, m, tt.in)
	}

	_, err := ParseMoney("twelve", "GBP")
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = ParseMoney("0.0000000001", "GBP")
	assert.ErrorIs(t, err, ErrInvalidPrice)

	for _, huge := range []string{"100000000000000000.00", "10000000000.123456789", "-100000000000000000"} {
		_, err = ParseMoney(huge, "GBP")
		assert.ErrorIs(t, err, ErrInvalidPrice, huge)
	}

	m, err := ParseMoney("92233720368547758.07", "GBP")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), m.Amount)
}

func TestSortByPrice_StableAcrossMixedDivisors(t *testing.T) {
	in := []Listing{
		{ID: "a", Price: Money{Amount: 500, Divisor: 100}},
		{ID: "b", Price: Money{Amount: 3, Divisor: 1}},
		{ID: "c", Price: Money{Amount: 5000, Divisor: 1000}},
		{ID: "d", Price: Money{Amount: 300, Divisor: 100}},
		{ID: "e", Price: Money{Amount: 1, Divisor: 1}},
	}

	sorted, err := SortByPrice(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "b", "d", "a", "c"}, ids(sorted))
	assert.Equal(t, "a", in[0].ID, "input must not be reordered")
}

func TestSortByPrice_InvalidDivisorFailsWhole(t *testing.T) {
	in := []Listing{priced("1", 100), {ID: "bad", Price: Money{Amount: 1, Divisor: 0}}}
	sorted, err := SortByPrice(in)
	assert.ErrorIs(t, err, ErrInvalidDivisor)
	assert.Nil(t, sorted)
}

func TestCurate_TenListings(t *testing.T) {
	got := Curate(wholePounds(10))
	assert.Equal(t, []string{"1", "2", "5", "6", "9", "10"}, ids(got))
}

func TestCurate_SmallListsReturnedWhole(t *testing.T) {
	for n := 0; n <= CuratedSize; n++ {
		in := wholePounds(n)
		assert.Equal(t, ids(in), ids(Curate(in)), "n=%d", n)
	}
}

func TestCurate_LengthAndGroupOrder(t *testing.T) {
	for n := 0; n <= 40; n++ {
		got := Curate(wholePounds(n))
		want := n
		if want > CuratedSize {
			want = CuratedSize
		}
		require.Len(t, got, want, "n=%d", n)
		if n <= CuratedSize {
			continue
		}
		for g := 0; g < CuratedSize; g += 2 {
			lo, err := Normalize(got[g])
			require.NoError(t, err)
			hi, err := Normalize(got[g+1])
			require.NoError(t, err)
			assert.True(t, lo.LessThanOrEqual(hi), "n=%d group %d out of order", n, g/2)
		}
	}
}

func TestCurate_SevenListingsDoesNotDoubleSelect(t *testing.T) {
	got := Curate(wholePounds(7))
	assert.Equal(t, []string{"1", "2", "3", "4", "6", "7"}, ids(got))
}

func TestPaginate_IsCappedPrefix(t *testing.T) {
	in := wholePounds(120)
	assert.Len(t, Paginate(in, 50), 50)
	assert.Equal(t, ids(in[:100]), ids(Paginate(in, 100)))
	assert.Len(t, Paginate(in, 150), 120)
	assert.Empty(t, Paginate(in, -1))
}

func TestView_StateMachine(t *testing.T) {
	in := wholePounds(120)

	v := NewView()
	assert.Equal(t, ModeCurated, v.Mode)
	assert.Len(t, v.Select(in), CuratedSize)
	assert.True(t, v.HasMore(len(in)))

	assert.Equal(t, v, v.ShowMore(len(in)), "show more is ignored in curated mode")

	v = v.ShowAll()
	assert.Equal(t, View{Mode: ModeFull, PaginationCount: 50}, v)
	assert.Len(t, v.Select(in), 50)

	v = v.ShowMore(len(in))
	assert.Len(t, v.Select(in), 100)

	v = v.ShowMore(len(in))
	assert.Equal(t, 120, v.PaginationCount)
	assert.Len(t, v.Select(in), 120)
	assert.False(t, v.HasMore(len(in)))

	assert.Equal(t, v, v.ShowMore(len(in)))

	v = v.ShowMore(len(in)).ShowAll()
	assert.Equal(t, DefaultPageSize, v.PaginationCount, "switching to full resets the page size")

	assert.Equal(t, NewView(), v.Reset())
}

func TestView_ShowMoreNeverShrinksShortLists(t *testing.T) {
	v := NewView().ShowAll().ShowMore(20)
	assert.Equal(t, DefaultPageSize, v.PaginationCount)
	assert.Len(t, v.Select(wholePounds(20)), 20)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeFull, ParseMode("full"))
	assert.Equal(t, ModeCurated, ParseMode("curated"))
	assert.Equal(t, ModeCurated, ParseMode(""))
	assert.Equal(t, ModeCurated, ParseMode("everything"))
}

func TestAnalyse(t *testing.T) {
	b, err := Analyse(wholePounds(4))
	require.NoError(t, err)
	assert.Equal(t, 4, b.Count)
	assert.True(t, b.AveragePrice.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, b.MinPrice.Equal(decimal.NewFromInt(1)))
	assert.True(t, b.MaxPrice.Equal(decimal.NewFromInt(4)))

	empty, err := Analyse(nil)
	require.NoError(t, err)
	assert.Equal(t, Breakdown{}, empty)

	_, err = Analyse([]Listing{{ID: "x", Price: Money{Amount: 5}}})
	assert.ErrorIs(t, err, ErrInvalidDivisor)
}
