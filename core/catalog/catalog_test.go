package catalog

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProduct() Product {
	return Product{
		Name:     "Power Bank",
		Category: "Power Banks",
		Price:    MustPrice("2500"),
		Stock:    StockInStock,
		Shop:     ShopUnderG,
	}
}

func TestPriceJSON(t *testing.T) {
	var p Price
	require.NoError(t, json.Unmarshal([]byte(`1300`), &p))
	assert.Equal(t, "1300.00", p.String())

	require.NoError(t, json.Unmarshal([]byte(`"12.345"`), &p))
	assert.Equal(t, "12.35", p.String())

	data, err := json.Marshal(struct {
		Price Price `json:"price"`
	}{MustPrice("0.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"0.50"}`, string(data))

	require.NoError(t, json.Unmarshal([]byte(`"-0.001"`), &p))
	assert.True(t, p.IsNegative(), "negative amounts do not round up to zero")
	assert.False(t, p.InRange())

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &p))
	_, err = NewPrice("twelve")
	assert.Error(t, err)
}

func TestPriceValidate(t *testing.T) {
	assert.NoError(t, MustPrice("0").Validate("price"))
	assert.NoError(t, MaxPrice.Validate("price"))
	assert.True(t, MaxPrice.InRange())

	var verr *ValidationError
	require.ErrorAs(t, MustPrice("-0.004").Validate("price"), &verr)
	assert.Equal(t, []string{"price"}, verr.Fields)

	require.ErrorAs(t, MustPrice("100000000").Validate("gasPrice"), &verr)
	assert.Equal(t, []string{"gasPrice"}, verr.Fields)

	// rounds up past the largest storable amount
	assert.False(t, MustPrice("99999999.995").InRange())
}

func TestProductValidate(t *testing.T) {
	p := validProduct()
	assert.NoError(t, p.Validate())

	p.Price = MustPrice("0")
	assert.NoError(t, p.Validate(), "zero is a valid price")

	p.Price = MustPrice("-0.01")
	var verr *ValidationError
	require.ErrorAs(t, p.Validate(), &verr)
	assert.Equal(t, []string{"price"}, verr.Fields)

	p = validProduct()
	p.Category = "Toys"
	require.ErrorAs(t, p.Validate(), &verr)
	assert.Equal(t, Categories, verr.Allowed)

	p = validProduct()
	p.Stock = "plenty"
	require.ErrorAs(t, p.Validate(), &verr)
	assert.Equal(t, []string{"in-stock", "low-stock", "out-of-stock"}, verr.Allowed)

	p = validProduct()
	p.Shop = "Dhaka"
	require.ErrorAs(t, p.Validate(), &verr)
	assert.Equal(t, []string{"Under-G", "Randa", "Both"}, verr.Allowed)

	p = validProduct()
	p.Name = "   "
	require.ErrorAs(t, p.Validate(), &verr)
	assert.Equal(t, []string{"name"}, verr.Fields)
}

func TestProductPatchMissingForCreate(t *testing.T) {
	assert.Equal(t,
		[]string{"name", "price", "category", "shop", "stock", "image"},
		ProductPatch{}.MissingForCreate())

	patch := ProductPatch{
		Name:     Some("Cable"),
		Price:    Some(MustPrice("100")),
		Category: Some("Cables"),
		Shop:     Some(ShopRanda),
		Stock:    Some(StockLowStock),
		Image:    Some(" "),
	}
	assert.Equal(t, []string{"image"}, patch.MissingForCreate())

	patch.Image = Some("https://img.example/cable.png")
	assert.Empty(t, patch.MissingForCreate())

	patch.Price = Null[Price]()
	assert.Equal(t, []string{"price"}, patch.MissingForCreate())
}

func TestProductPatchApply(t *testing.T) {
	description := "old"
	p := validProduct()
	p.Description = &description

	ProductPatch{
		Name:  Some("  New name "),
		Price: Some(MustPrice("10")),
	}.Apply(&p)
	assert.Equal(t, "New name", p.Name)
	assert.Equal(t, "10.00", p.Price.String())
	require.NotNil(t, p.Description)
	assert.Equal(t, "old", *p.Description)
	assert.Equal(t, "Power Banks", p.Category)

	ProductPatch{Description: Null[string]()}.Apply(&p)
	assert.Nil(t, p.Description)
}

func TestSolarProjectPatch(t *testing.T) {
	assert.Equal(t, []string{"title", "image"}, SolarProjectPatch{}.MissingForCreate())
	assert.True(t, SolarProjectPatch{}.Empty())

	location := "Randa"
	kva := "5"
	completed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sp := SolarProject{Title: "Rooftop", Image: "img", Location: &location, Kva: &kva}

	SolarProjectPatch{
		Title:       Some("Rooftop 2"),
		Kva:         Null[string](),
		CompletedAt: Some(completed),
	}.Apply(&sp)
	assert.Equal(t, "Rooftop 2", sp.Title)
	assert.Equal(t, "img", sp.Image)
	require.NotNil(t, sp.Location)
	assert.Equal(t, "Randa", *sp.Location)
	assert.Nil(t, sp.Kva)
	require.NotNil(t, sp.CompletedAt)
	assert.True(t, completed.Equal(*sp.CompletedAt))

	SolarProjectPatch{Location: Some(""), CompletedAt: Null[time.Time]()}.Apply(&sp)
	assert.Nil(t, sp.Location)
	assert.Nil(t, sp.CompletedAt)

	assert.NoError(t, SolarProjectPatch{Location: Some("")}.Validate())
	var verr *ValidationError
	require.ErrorAs(t, SolarProjectPatch{Title: Some(" "), Image: Null[string]()}.Validate(), &verr)
	assert.Equal(t, []string{"title", "image"}, verr.Fields)
}

func TestSolarProjectMatchesQuery(t *testing.T) {
	location := "Randa Market"
	sp := SolarProject{Title: "School rooftop", Location: &location}
	assert.True(t, sp.MatchesQuery(""))
	assert.True(t, sp.MatchesQuery("randa"))
	assert.True(t, sp.MatchesQuery("ROOF"))
	assert.False(t, sp.MatchesQuery("mosque"))
	assert.False(t, SolarProject{Title: "Clinic"}.MatchesQuery("randa"))
}

func TestEstimate(t *testing.T) {
	e := Load{Fans: 2, TVs: 1, Fridges: 1, Bulbs: 4, Laptops: -3}.Estimate()
	assert.Equal(t, 2*75+100+150+4*15, e.TotalWatts)
	assert.Equal(t, "0.69", e.Kva)
	assert.Equal(t, []string{"2 fan(s)", "1 TV(s)", "1 fridge(s)", "4 bulb(s)"}, e.Appliances)

	e = Load{}.Estimate()
	assert.Equal(t, 0, e.TotalWatts)
	assert.Equal(t, "0.00", e.Kva)
	assert.NotNil(t, e.Appliances)

	e = Load{Other: 2, Laptops: 1}.Estimate()
	assert.Equal(t, 265, e.TotalWatts)
	assert.Equal(t, "0.40", e.Kva)
	assert.Equal(t, []string{"1 laptop(s)", "2 other appliance(s)"}, e.Appliances)
}

func TestLoadValidate(t *testing.T) {
	assert.NoError(t, Load{Fans: MaxApplianceCount, Laptops: -1}.Validate())

	var verr *ValidationError
	require.ErrorAs(t, Load{Fans: MaxApplianceCount + 1, Other: 2 * MaxApplianceCount}.Validate(), &verr)
	assert.Equal(t, []string{"fans", "other"}, verr.Fields)
}

func TestShops(t *testing.T) {
	// 09:59 and 22:00 in Lagos are 08:59 and 21:00 UTC
	assert.False(t, IsShopOpen(time.Date(2024, 1, 1, 8, 59, 0, 0, time.UTC)))
	assert.True(t, IsShopOpen(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	assert.True(t, IsShopOpen(time.Date(2024, 1, 1, 20, 59, 0, 0, time.UTC)))
	assert.False(t, IsShopOpen(time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC)))

	open := Shops(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	require.Len(t, open, 2)
	assert.True(t, open[0].IsOpen)
	assert.True(t, open[0].HasGas)
	assert.Equal(t, ShopRanda, open[1].Location)

	open[0].Services[0] = "changed"
	again := Shops(time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "Gas Refill", again[0].Services[0])
	assert.False(t, again[0].IsOpen)
}
