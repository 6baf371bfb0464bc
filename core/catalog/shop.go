package catalog

import "time"

// Shop is a physical store location
type Shop struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Location ShopLocation `json:"location"`
	Address  string       `json:"address"`
	Phone    string       `json:"phone"`
	Services []string     `json:"services"`
	HasGas   bool         `json:"hasGas"`
	MapEmbed string       `json:"mapEmbed"`
	IsOpen   bool         `json:"isOpen"`
}

// shopTimeZone is West Africa Time, which has no daylight saving
var shopTimeZone = time.FixedZone("WAT", 60*60)

// opening hours, local time
const (
	shopOpensAt  = 10
	shopClosesAt = 22
)

// IsShopOpen returns true if t falls within the opening hours 10:00 to 22:00 shop time
func IsShopOpen(t time.Time) bool {
	hour := t.In(shopTimeZone).Hour()
	return hour >= shopOpensAt && hour < shopClosesAt
}

var shops = []Shop{
	{
		ID:       "1",
		Name:     "Jornalis Junction (Under-G)",
		Location: ShopUnderG,
		Address:  "UnderG Area, Ogbomoso, Oyo State",
		Phone:    "08032580975",
		Services: []string{"Gas Refill", "Oil", "POS", "Tech Products", "Solar Pickup"},
		HasGas:   true,
		MapEmbed: "https://www.google.com/maps/embed?pb=!1m10!1m8!1m3!1d987.357619408702!2d4.262792!3d8.15931!3m2!1i1024!2i768!4f13.1!5e0!3m2!1sen!2sng!4v1766591684285!5m2!1sen!2sng",
	},
	{
		ID:       "2",
		Name:     "Opposite Anbode Filling Station",
		Location: ShopRanda,
		Address:  "Randa Area, Ogbomoso, Oyo State",
		Phone:    "08161154835",
		Services: []string{"Solar Consults", "Tech Pickup", "POS"},
		HasGas:   false,
		MapEmbed: "https://www.google.com/maps/embed?pb=!1m18!1m12!1m3!1d3949.6514888351066!2d4.228969499999999!3d8.1369169!2m3!1f0!2f0!3f0!3m2!1i1024!2i768!4f13.1!3m3!1m2!1s0x103713ce14357323%3A0x91aef1b44edb59ed!2sSAHNAF%20GLOBAL%20TECH!5e0!3m2!1sen!2sng!4v1766588087593!5m2!1sen!2sng",
	},
}

// Shops returns the shop directory with the opening state at time now
func Shops(now time.Time) []Shop {
	open := IsShopOpen(now)
	result := make([]Shop, len(shops))
	for i, s := range shops {
		s.Services = append([]string(nil), s.Services...)
		s.IsOpen = open
		result[i] = s
	}
	return result
}
