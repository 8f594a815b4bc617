package acquire

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
)

// Session is the handle to one connected scope.
// It pairs the link with the vendor dialect; no instrument state lives outside it.
// At most one run may use a session at a time.
type Session struct {
	Instrument contract.Instrument
	Dialect    contract.ScopeDialect
	LineDelay  time.Duration // Pause between consecutive setup lines
}

// SelectChannel makes channel the waveform source.
func (s *Session) SelectChannel(ctx context.Context, channel int) error {
	return s.Instrument.Write(ctx, s.Dialect.SourceSelect(channel))
}

// SelectSegment moves the scope's segment pointer to a 1-based index.
func (s *Session) SelectSegment(ctx context.Context, index int) error {
	return s.Instrument.Write(ctx, s.Dialect.SelectSegment(index))
}

// Identify returns the identification string of the instrument.
func (s *Session) Identify(ctx context.Context) (string, error) {
	resp, err := s.Instrument.Query(ctx, s.Dialect.IdentityQuery())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

// CheckError pops one entry from the instrument error queue.
// A non-zero code is reported as ErrInstrument.
func (s *Session) CheckError(ctx context.Context) error {
	resp, err := s.Instrument.Query(ctx, s.Dialect.ErrorQuery())
	if err != nil {
		return err
	}
	code, msg, _ := strings.Cut(strings.TrimSpace(resp), ",")
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("%w: unreadable error queue entry %q", schema.ErrInstrument, resp)
	}
	if n != 0 {
		return fmt.Errorf("%w: %d %s", schema.ErrInstrument, n, strings.Trim(strings.TrimSpace(msg), `"`))
	}
	return nil
}

// queryFloat sends a query and parses the response as a float.
func (s *Session) queryFloat(ctx context.Context, query string) (float64, error) {
	resp, err := s.Instrument.Query(ctx, query)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s returned %q", schema.ErrInvalidMetadata, query, resp)
	}
	return v, nil
}

// EstimateSegmentCount returns the number of segments needed to cover acqTime seconds
// at the scope's current sample rate and points per segment.
func (s *Session) EstimateSegmentCount(ctx context.Context, acqTime float64) (int, error) {
	rate, err := s.queryFloat(ctx, s.Dialect.SampleRateQuery())
	if err != nil {
		return 0, err
	}
	points, err := s.queryFloat(ctx, s.Dialect.PointsQuery())
	if err != nil {
		return 0, err
	}
	if rate <= 0 || points < 1 {
		return 0, fmt.Errorf("%w: sample rate %g, points %g", schema.ErrInvalidMetadata, rate, points)
	}
	return max(int(math.Ceil(acqTime*rate/math.Trunc(points))), 1), nil
}
