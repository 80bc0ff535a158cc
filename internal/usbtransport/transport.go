// Package usbtransport owns the single open USB handle to a CC-Debugger
// probe (vendor 0x0451, product 0x16a2) and exposes the two primitives
// the rest of the stack builds on: a vendor control transfer and a bulk
// transfer on endpoint 0x04. It is grounded on the USB device lifecycle
// in guiperry-HASHER's internal/driver/device (gousb context → device →
// config → interface → endpoints, torn down in reverse order).
package usbtransport

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"

	"ccd/internal/ccerr"
)

// Direction selects which way a transfer goes.
type Direction int

const (
	// In is a device-to-host transfer.
	In Direction = iota
	// Out is a host-to-device transfer.
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

const (
	bulkEndpointAddr = 0x04
	transferTimeout  = 1 * time.Second

	// bmRequestType bits: vendor request, direction in the high bit.
	reqTypeVendor = 0x40
	reqDirIn      = 0x80
	reqDirOut     = 0x00
)

// Device is the minimal transport surface the rest of the stack needs.
// It is satisfied by *USBDevice and by any test double that wants to
// drive the protocol layers without real hardware.
type Device interface {
	Control(dir Direction, request uint8, value, index uint16, data []byte) error
	Bulk(dir Direction, data []byte) error
	Close() error
}

// USBDevice owns exactly one open CC-Debugger probe. While it exists,
// interface 0 is claimed and any kernel driver has been detached.
type USBDevice struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	epOut  *gousb.OutEndpoint
	epIn   *gousb.InEndpoint
}

// Open enumerates USB devices, opens the first one matching vendor:product,
// detaches any active kernel driver, and claims interface 0.
func Open(vendor, product gousb.ID) (*USBDevice, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(vendor, product)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("open usb device %s:%s: %w", vendor, product, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("no device matching %s:%s: %w", vendor, product, ccerr.ErrDeviceNotFound)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("detach kernel driver: %w", err)
	}

	config, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("set usb config: %w", err)
	}

	intf, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("claim interface 0: %w", err)
	}

	epOut, err := intf.OutEndpoint(bulkEndpointAddr)
	if err != nil {
		intf.Close()
		config.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("open bulk out endpoint: %w", err)
	}

	epIn, err := intf.InEndpoint(bulkEndpointAddr)
	if err != nil {
		intf.Close()
		config.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("open bulk in endpoint: %w", err)
	}

	return &USBDevice{
		ctx:    ctx,
		dev:    dev,
		config: config,
		intf:   intf,
		epOut:  epOut,
		epIn:   epIn,
	}, nil
}

// Close releases the interface, config and device, and frees the USB
// context, tolerating a partially-initialized handle.
func (d *USBDevice) Close() error {
	if d == nil {
		return nil
	}
	if d.intf != nil {
		d.intf.Close()
	}
	if d.config != nil {
		d.config.Close()
	}
	if d.dev != nil {
		d.dev.Close()
	}
	if d.ctx != nil {
		d.ctx.Close()
	}
	return nil
}

// Control performs a vendor control transfer. It fails if the device
// returns a transfer length different from len(data).
func (d *USBDevice) Control(dir Direction, request uint8, value, index uint16, data []byte) error {
	rType := uint8(reqTypeVendor)
	if dir == In {
		rType |= reqDirIn
	} else {
		rType |= reqDirOut
	}

	n, err := d.dev.Control(rType, request, value, index, data)
	if err != nil {
		return fmt.Errorf("control transfer %s req=0x%02x: %w: %v", dir, request, ccerr.ErrUSBTransfer, err)
	}
	if n != len(data) {
		return fmt.Errorf("control transfer %s req=0x%02x: got %dB want %dB: %w", dir, request, n, len(data), ccerr.ErrUSBTransfer)
	}
	return nil
}

// Bulk performs a bulk transfer on endpoint 0x04, failing on a short
// transfer or any underlying error.
func (d *USBDevice) Bulk(dir Direction, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), transferTimeout)
	defer cancel()

	var n int
	var err error
	if dir == Out {
		n, err = d.epOut.WriteContext(ctx, data)
	} else {
		n, err = d.epIn.ReadContext(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("bulk transfer %s %dB: %w: %v", dir, len(data), ccerr.ErrUSBTransfer, err)
	}
	if n != len(data) {
		return fmt.Errorf("bulk transfer %s: got %dB want %dB: %w", dir, n, len(data), ccerr.ErrUSBTransfer)
	}
	return nil
}
