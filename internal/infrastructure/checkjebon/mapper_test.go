package checkjebon

import (
	"encoding/json"
	"testing"

	"github.com/basketlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSnapshot(t *testing.T) {
	var records []RetailerRecord
	require.NoError(t, json.Unmarshal([]byte(`[
		{"n":"","c":"No code","d":[{"n":"Melk","p":1}]},
		{"n":"plus","c":"","d":[
			{"n":"Cafe\u0301","p":2.5},
			{"n":"","p":1.0},
			{"n":"Zonder prijs"},
			{"n":"Null prijs","p":null},
			{"n":"Tekst prijs","p":"1,99"},
			{"n":"  Kaas  ","p":0,"s":" 500 g ","l":" k1 "}
		]}
	]`), &records))

	snapshot := MapSnapshot(records)
	require.Len(t, snapshot.Retailers, 1)

	plus := snapshot.Retailers[0]
	assert.Equal(t, "plus", plus.Code)
	assert.Equal(t, "plus", plus.Name, "missing display name falls back to the code")
	assert.Equal(t, []domain.CatalogProduct{
		{Name: "Caf\u00e9", Price: 2.5},
		{Name: "Kaas", Price: 0, Size: "500 g", LinkSuffix: "k1"},
	}, plus.Products)
}

func TestMapSnapshot_Empty(t *testing.T) {
	snapshot := MapSnapshot(nil)
	assert.NotNil(t, snapshot)
	assert.Empty(t, snapshot.Retailers)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw   string
		price float64
		ok    bool
	}{
		{"1.09", 1.09, true},
		{"0", 0, true},
		{"null", 0, false},
		{`"1.09"`, 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			price, ok := parsePrice(json.RawMessage(tt.raw))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.price, price)
		})
	}
}
