package bandplan

import (
	"sort"

	"github.com/ftl/wsqso/core"
)

// Band represents a frequency band with its WSPR dial frequency.
type Band struct {
	core.FrequencyRange
	Name BandName
	Dial core.Frequency
}

// Contains indicates if the band contains the given frequency.
func (b *Band) Contains(f core.Frequency) bool {
	return f >= b.From && f <= b.To
}

// UnknownBand is the unknown band that contains no frequency.
var UnknownBand = Band{Name: BandUnknown}

// BandName is the name of a frequency band.
type BandName string

// All bands with WSPR activity.
const (
	BandUnknown BandName = "Unknown"
	Band2200m   BandName = "2200m"
	Band630m    BandName = "630m"
	Band160m    BandName = "160m"
	Band80m     BandName = "80m"
	Band60m     BandName = "60m"
	Band40m     BandName = "40m"
	Band30m     BandName = "30m"
	Band20m     BandName = "20m"
	Band17m     BandName = "17m"
	Band15m     BandName = "15m"
	Band12m     BandName = "12m"
	Band10m     BandName = "10m"
	Band6m      BandName = "6m"
	Band4m      BandName = "4m"
	Band2m      BandName = "2m"
)

// DefaultBand is used if no band is configured.
const DefaultBand = Band40m

// Bandplan type.
type Bandplan map[BandName]Band

// ByName returns the band with the given name.
func (p Bandplan) ByName(name BandName) (Band, bool) {
	b, ok := p[name]
	if !ok {
		return UnknownBand, false
	}
	return b, true
}

// ByFrequency returns the band for the matching frequency.
func (p Bandplan) ByFrequency(f core.Frequency) Band {
	for _, b := range p {
		if b.Contains(f) {
			return b
		}
	}
	return UnknownBand
}

// Names returns the names of all bands, ordered by frequency.
func (p Bandplan) Names() []BandName {
	bands := make([]Band, 0, len(p))
	for _, b := range p {
		bands = append(bands, b)
	}
	sort.Slice(bands, func(i, j int) bool {
		return bands[i].From < bands[j].From
	})
	result := make([]BandName, len(bands))
	for i, b := range bands {
		result[i] = b.Name
	}
	return result
}

func band(name BandName, from, to, dial core.Frequency) Band {
	return Band{
		Name:           name,
		FrequencyRange: core.FrequencyRange{From: from, To: to},
		Dial:           dial,
	}
}

// WSPR is the bandplan with the WSPR dial frequencies (USB).
var WSPR = Bandplan{
	Band2200m: band(Band2200m, 135700, 138700, 138500),
	Band630m:  band(Band630m, 472000, 479000, 475200),
	Band160m:  band(Band160m, 1810000, 2000000, 1839600),
	Band80m:   band(Band80m, 3500000, 3800000, 3569600),
	Band60m:   band(Band60m, 5250000, 5450000, 5288200),
	Band40m:   band(Band40m, 7000000, 7200000, 7041100),
	Band30m:   band(Band30m, 10100000, 10150000, 10141200),
	Band20m:   band(Band20m, 14000000, 14350000, 14098100),
	Band17m:   band(Band17m, 18068000, 18168000, 18107100),
	Band15m:   band(Band15m, 21000000, 21450000, 21097100),
	Band12m:   band(Band12m, 24890000, 24990000, 24927100),
	Band10m:   band(Band10m, 28000000, 29700000, 28127100),
	Band6m:    band(Band6m, 50000000, 52000000, 50295500),
	Band4m:    band(Band4m, 70000000, 70500000, 70092000),
	Band2m:    band(Band2m, 144000000, 146000000, 144490000),
}
