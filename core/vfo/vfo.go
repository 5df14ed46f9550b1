package vfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ftl/rigproxy/pkg/protocol"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
)

// DefaultAddress of rigctld.
const DefaultAddress = "localhost:4532"

// Open a connection to a hamlib VFO at the given network address. If address is empty, DefaultAddress is used.
func Open(address string) (*VFO, error) {
	if address == "" {
		address = DefaultAddress
	}
	out, err := net.Dial("tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open VFO connection to %s", address)
	}

	trx := protocol.NewTransceiver(out)
	trx.WhenDone(func() {
		out.Close()
	})

	result := VFO{
		trx:             trx,
		pollingInterval: 1 * time.Second,
		requestTimeout:  500 * time.Millisecond,
		setFrequency:    make(chan core.Frequency, 10),
		frequencyLock:   new(sync.RWMutex),
	}
	return &result, nil
}

// VFO keeps track of the dial frequency of a transceiver controlled by rigctld.
type VFO struct {
	trx                       *protocol.Transceiver
	pollingInterval           time.Duration
	requestTimeout            time.Duration
	setFrequency              chan core.Frequency
	currentFrequency          core.Frequency
	frequencyLock             *sync.RWMutex
	frequencyChangedCallbacks []FrequencyChanged
}

// FrequencyChanged is called on frequency changes.
type FrequencyChanged func(f core.Frequency)

// Run the VFO.
func (v *VFO) Run(stop chan struct{}, wait *sync.WaitGroup) {
	wait.Add(1)
	go func() {
		defer wait.Done()
		defer v.shutdown()

		v.pollFrequency()
		for {
			select {
			case <-time.After(v.pollingInterval):
				v.pollFrequency()

			case f := <-v.setFrequency:
				v.sendFrequency(f)
				v.pollFrequency()

			case <-stop:
				return
			}
		}
	}()
}

func (v *VFO) shutdown() {
	v.trx.Close()
	zap.S().Info("VFO shutdown")
}

func (v *VFO) pollFrequency() {
	ctx, cancel := context.WithTimeout(context.Background(), v.requestTimeout)
	defer cancel()
	request := protocol.Request{Command: protocol.ShortCommand("f")}
	response, err := v.trx.Send(ctx, request)
	if err != nil {
		zap.S().Warnf("polling frequency failed: %v", err)
		return
	}
	if len(response.Data) == 0 {
		zap.S().Warn("polling frequency failed: empty response")
		return
	}

	f, err := hamlibToF(response.Data[0])
	if err != nil {
		zap.S().Warnf("wrong frequency format %s: %v", response.Data[0], err)
		return
	}

	if v.updateCurrentFrequency(f) {
		zap.S().Infof("dial frequency %v", f)
		for _, frequencyChanged := range v.frequencyChangedCallbacks {
			frequencyChanged(f)
		}
	}
}

func (v *VFO) updateCurrentFrequency(f core.Frequency) bool {
	v.frequencyLock.Lock()
	defer v.frequencyLock.Unlock()
	if int(f) == int(v.currentFrequency) {
		return false
	}

	v.currentFrequency = f
	return true
}

func (v *VFO) sendFrequency(f core.Frequency) {
	ctx, cancel := context.WithTimeout(context.Background(), v.requestTimeout)
	defer cancel()
	request := protocol.Request{Command: protocol.ShortCommand("F"), Args: []string{fToHamlib(f)}}
	_, err := v.trx.Send(ctx, request)
	if err != nil {
		zap.S().Warnf("sending frequency failed: %v", err)
	}
}

// SetFrequency sets the given dial frequency on the VFO.
func (v *VFO) SetFrequency(f core.Frequency) {
	select {
	case v.setFrequency <- f:
	default:
		zap.S().Warn("VFO.SetFrequency hangs")
	}
}

// CurrentFrequency returns the current dial frequency of the VFO.
func (v *VFO) CurrentFrequency() core.Frequency {
	v.frequencyLock.RLock()
	defer v.frequencyLock.RUnlock()
	return v.currentFrequency
}

// OnFrequencyChange registers the given callback to be notified if the current frequency changes.
// Callbacks must be registered before Run is called.
func (v *VFO) OnFrequencyChange(f FrequencyChanged) {
	v.frequencyChangedCallbacks = append(v.frequencyChangedCallbacks, f)
}

func fToHamlib(f core.Frequency) string {
	return fmt.Sprintf("%d", int(f))
}

func hamlibToF(s string) (core.Frequency, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot parse frequency %q", s)
	}
	return core.Frequency(f), nil
}
