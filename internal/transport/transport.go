// Package transport moves SCPI text and binary blocks between the host and an
// instrument. Every link serializes its traffic, bounds each exchange by a timeout
// and reports failures as schema.ErrTransport or schema.ErrTimeout.
package transport

import (
	"context"
	"fmt"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
)

// Open connects to the instrument described by cfg.
func Open(ctx context.Context, cfg *contract.Config) (contract.Instrument, error) {
	switch cfg.Transport {
	case schema.SocketTransport:
		return DialSocket(ctx, cfg.Address, cfg.Timeout)
	case schema.PrologixTransport:
		return OpenPrologix(ctx, cfg.Address, cfg.BaudRate, cfg.GPIBAddress, cfg.Timeout)
	case schema.SimulatorTransport:
		if cfg.Dialect != schema.KeysightDialect {
			return nil, fmt.Errorf("the simulator only speaks the %s dialect (received %s)", schema.KeysightDialect, cfg.Dialect)
		}
		scan := cfg.Finesse.ScanChannel
		if scan == 0 {
			scan = contract.DefaultScanChannel
		}
		return NewSimulator(scan), nil
	default:
		return nil, fmt.Errorf("unknown transport '%s'", cfg.Transport)
	}
}
