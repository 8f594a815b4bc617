// Package dialect formats vendor specific SCPI commands. Dialects are pure
// formatters: they never touch a connection and hold no state.
package dialect

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
)

// preambleFields is the number of comma separated values in a waveform preamble.
const preambleFields = 10

// ForScope returns the scope dialect registered under name.
func ForScope(name schema.DialectName) (contract.ScopeDialect, error) {
	switch name {
	case schema.KeysightDialect:
		return Keysight3000T{}, nil
	case schema.RigolDialect:
		return RigolDS4000{}, nil
	default:
		return nil, fmt.Errorf("unknown dialect '%s'. must be keysight, rigol", name)
	}
}

// parsePreamble decodes the ten-field preamble shared by Keysight and Rigol scopes:
// format, type, points, count, xincrement, xorigin, xreference, yincrement, yorigin, yreference.
func parsePreamble(resp string) (schema.ChannelInfo, error) {
	fields := strings.Split(strings.TrimSpace(resp), ",")
	if len(fields) != preambleFields {
		return schema.ChannelInfo{}, fmt.Errorf("%w: preamble has %d fields, want %d", schema.ErrInvalidMetadata, len(fields), preambleFields)
	}

	var ints [4]int
	for i := range ints {
		// Points is sometimes reported in scientific notation.
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return schema.ChannelInfo{}, fmt.Errorf("%w: preamble field %d: %v", schema.ErrInvalidMetadata, i, err)
		}
		if math.IsNaN(v) || math.Abs(v) > math.MaxInt32 {
			return schema.ChannelInfo{}, fmt.Errorf("%w: preamble field %d out of range: %s", schema.ErrInvalidMetadata, i, fields[i])
		}
		ints[i] = int(v)
	}
	var floats [6]float64
	for i := range floats {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[4+i]), 64)
		if err != nil {
			return schema.ChannelInfo{}, fmt.Errorf("%w: preamble field %d: %v", schema.ErrInvalidMetadata, 4+i, err)
		}
		floats[i] = v
	}

	info := schema.ChannelInfo{
		Format:       ints[0],
		WaveformType: ints[1],
		Points:       ints[2],
		Count:        ints[3],
		XIncrement:   floats[0],
		XOrigin:      floats[1],
		XReference:   floats[2],
		YIncrement:   floats[3],
		YOrigin:      floats[4],
		YReference:   floats[5],
	}
	if err := info.Validate(); err != nil {
		return schema.ChannelInfo{}, err
	}
	return info, nil
}

// num formats a float the way SCPI parsers accept it.
func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
