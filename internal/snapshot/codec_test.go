package snapshot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/rocketcart/internal/cart"
)

func sampleCart() cart.Cart {
	return cart.Cart{
		{Product: cart.Product{ID: 42, Title: "Shoe", Price: decimal.NewFromInt(100), Image: "x.png"}, Amount: 1},
		{Product: cart.Product{ID: 7, Title: "Tênis VR Caminhada", Price: decimal.RequireFromString("139.9"), Image: "y.png"}, Amount: 3},
	}
}

func TestEncodeWritesPriceAsNumber(t *testing.T) {
	t.Parallel()

	payload, err := Encode(sampleCart())
	require.NoError(t, err)
	require.JSONEq(t, `[
		{"id":42,"title":"Shoe","price":100,"image":"x.png","amount":1},
		{"id":7,"title":"Tênis VR Caminhada","price":139.9,"image":"y.png","amount":3}
	]`, string(payload))
}

func TestEncodeEmptyCart(t *testing.T) {
	t.Parallel()

	payload, err := Encode(nil)
	require.NoError(t, err)
	require.Equal(t, "[]", string(payload))
}

func TestDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	payload, err := Encode(sampleCart())
	require.NoError(t, err)

	got, err := Decode(payload)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, int64(42), got[0].ID)
	require.Equal(t, int64(7), got[1].ID)
	require.Equal(t, 3, got[1].Amount)
	require.True(t, decimal.RequireFromString("139.9").Equal(got[1].Price))
}

func TestDecodeAcceptsQuotedPrice(t *testing.T) {
	t.Parallel()

	got, err := Decode([]byte(`[{"id":1,"title":"A","price":"19.90","image":"a.png","amount":2}]`))
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("19.9").Equal(got[0].Price))
}

func TestDecodeEmptyPayloads(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "  ", "null", "[]"} {
		got, err := Decode([]byte(raw))
		require.NoError(t, err, "payload %q", raw)
		require.Empty(t, got)
	}
}

func TestDecodeRejectsCorruptPayloads(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":       `{{{`,
		"object":         `{"id":1}`,
		"zero amount":    `[{"id":1,"title":"A","price":1,"image":"","amount":0}]`,
		"duplicate id":   `[{"id":1,"title":"A","price":1,"amount":1},{"id":1,"title":"A","price":1,"amount":1}]`,
		"negative price": `[{"id":1,"title":"A","price":-5,"amount":1}]`,
		"missing title":  `[{"id":1,"price":5,"amount":1}]`,
	}

	for name, raw := range cases {
		_, err := Decode([]byte(raw))
		require.Error(t, err, name)
	}
}
