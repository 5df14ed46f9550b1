package rx

import (
	"encoding/binary"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
)

// DeviceDescription describes an audio capture device.
type DeviceDescription struct {
	ID        string
	Name      string
	IsDefault bool
}

// ListDevices returns all available audio capture devices.
func ListDevices() ([]DeviceDescription, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "cannot initialize audio context")
	}
	defer func() {
		ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.Wrap(err, "cannot enumerate capture devices")
	}
	return describeDevices(infos), nil
}

func describeDevices(infos []malgo.DeviceInfo) []DeviceDescription {
	result := make([]DeviceDescription, len(infos))
	for i := range infos {
		result[i] = DeviceDescription{
			ID:        infos[i].ID.String(),
			Name:      infos[i].Name(),
			IsDefault: infos[i].IsDefault != 0,
		}
	}
	return result
}

// findDevice returns the index of the device with the given id, or of the first device whose name contains the query.
func findDevice(devices []DeviceDescription, query string) (int, bool) {
	for i, device := range devices {
		if device.ID == query {
			return i, true
		}
	}
	lowerQuery := strings.ToLower(query)
	for i, device := range devices {
		if strings.Contains(strings.ToLower(device.Name), lowerQuery) {
			return i, true
		}
	}
	return -1, false
}

// Capture provides mono 16-bit samples from a soundcard.
type Capture struct {
	ctx       *malgo.AllocatedContext
	device    *malgo.Device
	samples   chan core.SampleChunk
	closeOnce sync.Once
}

// NewCapture opens the capture device that matches the given name (or id) and starts capturing.
// An empty device name selects the system's default capture device.
func NewCapture(deviceName string, sampleRate int) (*Capture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		zap.S().Debugf("malgo: %s", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot initialize audio context")
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if deviceName != "" {
		infos, err := ctx.Devices(malgo.Capture)
		if err != nil {
			ctx.Uninit()
			ctx.Free()
			return nil, errors.Wrap(err, "cannot enumerate capture devices")
		}
		index, ok := findDevice(describeDevices(infos), deviceName)
		if !ok {
			ctx.Uninit()
			ctx.Free()
			return nil, errors.Errorf("no capture device matches %q", deviceName)
		}
		zap.S().Infof("using capture device %s", infos[index].Name())
		deviceConfig.Capture.DeviceID = infos[index].ID.Pointer()
	}

	result := &Capture{
		ctx:     ctx,
		samples: make(chan core.SampleChunk, 64),
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			result.forward(decodeS16LE(input))
		},
	}
	result.device, err = malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, errors.Wrap(err, "cannot open capture device")
	}
	err = result.device.Start()
	if err != nil {
		result.device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return nil, errors.Wrap(err, "cannot start capture device")
	}

	return result, nil
}

func (c *Capture) forward(chunk core.SampleChunk) {
	select {
	case c.samples <- chunk:
	default:
		zap.S().Warnf("capture hangs, dropping %d samples", len(chunk))
	}
}

// Samples returns the channel of captured chunks.
func (c *Capture) Samples() <-chan core.SampleChunk {
	return c.samples
}

// Close stops capturing and releases the device.
func (c *Capture) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.device.Stop()
		c.device.Uninit()
		c.ctx.Uninit()
		c.ctx.Free()
		close(c.samples)
		zap.S().Info("Capture shutdown")
	})
	return errors.Wrap(err, "cannot stop capture device")
}

func decodeS16LE(raw []byte) core.SampleChunk {
	result := make(core.SampleChunk, len(raw)/2)
	for i := range result {
		result[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return result
}
