package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ApplianceWatts is the assumed power draw of one appliance of each kind
var ApplianceWatts = map[string]int{
	"fan":    75,
	"tv":     100,
	"fridge": 150,
	"bulb":   15,
	"laptop": 65,
	"other":  100,
}

// applianceOrder is the order in which appliances are listed in an estimate
var applianceOrder = []string{"fan", "tv", "fridge", "bulb", "laptop", "other"}

var applianceLabels = map[string]string{
	"fan":    "fan(s)",
	"tv":     "TV(s)",
	"fridge": "fridge(s)",
	"bulb":   "bulb(s)",
	"laptop": "laptop(s)",
	"other":  "other appliance(s)",
}

// MaxApplianceCount is the largest count of one appliance kind a Load may carry
const MaxApplianceCount = 10000

// kvaFactor converts kilowatts to the recommended inverter rating
var kvaFactor = decimal.NewFromFloat(1.5)

// Load is the number of appliances of each kind a customer wants to power
type Load struct {
	Fans    int `json:"fans"`
	TVs     int `json:"tvs"`
	Fridges int `json:"fridges"`
	Bulbs   int `json:"bulbs"`
	Laptops int `json:"laptops"`
	Other   int `json:"other"`
}

// Estimate is the recommended system size for a Load
type Estimate struct {
	TotalWatts int      `json:"totalWatts"`
	Kva        string   `json:"kva"`
	Appliances []string `json:"appliances"`
}

func (l Load) counts() map[string]int {
	return map[string]int{
		"fan":    l.Fans,
		"tv":     l.TVs,
		"fridge": l.Fridges,
		"bulb":   l.Bulbs,
		"laptop": l.Laptops,
		"other":  l.Other,
	}
}

// Validate returns a validation error naming every count above MaxApplianceCount
func (l Load) Validate() error {
	fields := []string{}
	for _, c := range []struct {
		field string
		n     int
	}{
		{"fans", l.Fans}, {"tvs", l.TVs}, {"fridges", l.Fridges},
		{"bulbs", l.Bulbs}, {"laptops", l.Laptops}, {"other", l.Other},
	} {
		if c.n > MaxApplianceCount {
			fields = append(fields, c.field)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{
		Message: fmt.Sprintf("At most %d appliances of each kind are supported", MaxApplianceCount),
		Fields:  fields,
	}
}

// Estimate computes total watts and the kVA rating (kW x 1.5, two decimals).
// Negative counts are treated as zero.
func (l Load) Estimate() Estimate {
	counts := l.counts()
	e := Estimate{Appliances: []string{}}
	for _, name := range applianceOrder {
		n := counts[name]
		if n <= 0 {
			continue
		}
		e.TotalWatts += n * ApplianceWatts[name]
		e.Appliances = append(e.Appliances, fmt.Sprintf("%d %s", n, applianceLabels[name]))
	}
	kva := decimal.NewFromInt(int64(e.TotalWatts)).Div(decimal.NewFromInt(1000)).Mul(kvaFactor)
	e.Kva = kva.StringFixed(2)
	return e
}
