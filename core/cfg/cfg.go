package cfg

import (
	"math/rand"
	"strings"
	"time"

	"github.com/ftl/hamradio/callsign"
	"github.com/ftl/hamradio/cfg"
	"github.com/ftl/hamradio/locator"
	"github.com/pkg/errors"

	"github.com/ftl/wsqso/core"
	"github.com/ftl/wsqso/core/bandplan"
)

const (
	band            cfg.Key = "wsqso.band"
	shiftMode       cfg.Key = "wsqso.shiftMode"
	shiftFrequency  cfg.Key = "wsqso.shiftFrequency"
	audioDevice     cfg.Key = "wsqso.audioDevice"
	vfoHost         cfg.Key = "wsqso.vfoHost"
	testmode        cfg.Key = "wsqso.testmode"
	stationCallsign cfg.Key = "wsqso.station.callsign"
	stationLocator  cfg.Key = "wsqso.station.locator"
	stationPower    cfg.Key = "wsqso.station.power"
	waterfallWidth  cfg.Key = "wsqso.waterfall.width"
	waterfallHeight cfg.Key = "wsqso.waterfall.height"
)

// Limits of the shift frequency and the transmit power.
const (
	MinShiftFrequency core.Frequency = 1400
	MaxShiftFrequency core.Frequency = 1600
	MinPower                         = 0
	MaxPower                         = 60
)

// Load the configuration from the default hamradio configuration file.
func Load() (core.Configuration, error) {
	configuration, err := cfg.LoadDefault()
	if err != nil {
		return core.Configuration{}, errors.Wrap(err, "cannot load configuration")
	}

	defaults := Static()
	result := core.Configuration{
		Band:           configuration.Get(band, defaults.Band).(string),
		ShiftMode:      core.ShiftMode(configuration.Get(shiftMode, string(defaults.ShiftMode)).(string)),
		ShiftFrequency: core.Frequency(configuration.Get(shiftFrequency, float64(defaults.ShiftFrequency)).(float64)),
		AudioDevice:    configuration.Get(audioDevice, defaults.AudioDevice).(string),
		VFOHost:        configuration.Get(vfoHost, defaults.VFOHost).(string),
		Testmode:       configuration.Get(testmode, defaults.Testmode).(bool),
		Station: core.Station{
			Callsign: configuration.Get(stationCallsign, defaults.Station.Callsign).(string),
			Locator:  configuration.Get(stationLocator, defaults.Station.Locator).(string),
			Power:    int(configuration.Get(stationPower, float64(defaults.Station.Power)).(float64)),
		},
		WaterfallWidth:  int(configuration.Get(waterfallWidth, float64(defaults.WaterfallWidth)).(float64)),
		WaterfallHeight: int(configuration.Get(waterfallHeight, float64(defaults.WaterfallHeight)).(float64)),
	}

	return result, nil
}

// Static returns the default configuration.
func Static() core.Configuration {
	return core.Configuration{
		Band:            string(bandplan.DefaultBand),
		ShiftMode:       core.ShiftRandom,
		ShiftFrequency:  1500,
		Station:         core.Station{Power: 23},
		WaterfallWidth:  600,
		WaterfallHeight: 547,
	}
}

// Normalize the configuration: station details are upper case, and in random shift mode a random
// shift frequency is chosen.
func Normalize(configuration core.Configuration, random *rand.Rand) core.Configuration {
	result := configuration
	result.Station.Callsign = strings.ToUpper(strings.TrimSpace(result.Station.Callsign))
	result.Station.Locator = strings.ToUpper(strings.TrimSpace(result.Station.Locator))
	if result.ShiftMode == core.ShiftRandom {
		if random == nil {
			random = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		span := int(MaxShiftFrequency - MinShiftFrequency)
		result.ShiftFrequency = MinShiftFrequency + core.Frequency(random.Intn(span+1))
	}
	return result
}

// Validate the given configuration.
func Validate(configuration core.Configuration) error {
	if _, ok := bandplan.WSPR.ByName(bandplan.BandName(configuration.Band)); !ok {
		return errors.Errorf("unknown band %q", configuration.Band)
	}
	switch configuration.ShiftMode {
	case core.ShiftRandom, core.ShiftFixed:
	default:
		return errors.Errorf("unknown shift mode %q", configuration.ShiftMode)
	}
	if configuration.ShiftFrequency < MinShiftFrequency || configuration.ShiftFrequency > MaxShiftFrequency {
		return errors.Errorf("shift frequency %v must be between %v and %v", configuration.ShiftFrequency, MinShiftFrequency, MaxShiftFrequency)
	}
	if configuration.WaterfallWidth < 1 || configuration.WaterfallHeight < 1 {
		return errors.Errorf("invalid waterfall size %dx%d", configuration.WaterfallWidth, configuration.WaterfallHeight)
	}
	return ValidateStation(configuration.Station)
}

// ValidateStation checks the station details. An empty callsign or locator is allowed for receive only operation.
func ValidateStation(station core.Station) error {
	if station.Callsign != "" {
		if _, err := callsign.Parse(station.Callsign); err != nil {
			return errors.Wrapf(err, "invalid callsign %q", station.Callsign)
		}
	}
	if station.Locator != "" {
		if len(station.Locator) != 4 && len(station.Locator) != 6 {
			return errors.Errorf("locator %q must have 4 or 6 characters", station.Locator)
		}
		if _, err := locator.Parse(station.Locator); err != nil {
			return errors.Wrapf(err, "invalid locator %q", station.Locator)
		}
	}
	if station.Power < MinPower || station.Power > MaxPower {
		return errors.Errorf("power %ddBm must be between %d and %d dBm", station.Power, MinPower, MaxPower)
	}
	return nil
}
