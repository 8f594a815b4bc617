package transport

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hockijo/techconnect/internal/contract"
	serial "github.com/jacobsa/go-serial/serial"
)

// Prologix talks to a GPIB instrument through a Prologix GPIB-USB controller.
// The controller is put in controller mode with automatic read-after-write off,
// so every query is followed by an explicit read until EOI.
type Prologix struct {
	*link
	port string
	gpib int
}

var _ contract.Instrument = &Prologix{} // Compile-time check

// prologixReadTimeoutMax is the largest read timeout the controller accepts, in ms.
const prologixReadTimeoutMax = 3000

// OpenPrologix opens the serial port of the controller and addresses the instrument.
func OpenPrologix(ctx context.Context, portName string, baud uint, gpib int, timeout time.Duration) (*Prologix, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
	if err != nil {
		return nil, classify("prologix", "open "+portName, err)
	}

	p, err := NewPrologix(ctx, port, gpib, timeout)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	p.port = portName
	return p, nil
}

// NewPrologix configures a controller reachable over rwc for the instrument at gpib.
func NewPrologix(ctx context.Context, rwc io.ReadWriteCloser, gpib int, timeout time.Duration) (*Prologix, error) {
	p := &Prologix{
		link: newLink("prologix", rwc, timeout, asyncGuard),
		gpib: gpib,
	}

	readTimeout := min(max(timeout.Milliseconds(), 1), prologixReadTimeoutMax)
	setup := []string{
		"++mode 1",
		"++auto 0",
		"++eoi 1",
		"++eos 2",
		fmt.Sprintf("++read_tmo_ms %d", readTimeout),
		fmt.Sprintf("++addr %d", gpib),
	}
	for _, line := range setup {
		if err := p.Write(ctx, line); err != nil {
			return nil, err
		}
	}
	p.readCmd = "++read eoi"
	return p, nil
}

// String returns the port and GPIB address.
func (p *Prologix) String() string {
	return fmt.Sprintf("prologix %s gpib %d", p.port, p.gpib)
}
