package tntp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"traffix/pkg/network"
)

// ReadDemandFile parses a TNTP trips file and adds its OD pairs to net. The
// file groups records by origin (`Origin  N` lines) followed by
// `destination : demand;` triplets. Zero-demand pairs are skipped; the summed
// demand must match the <TOTAL OD FLOW> metadata.
func ReadDemandFile(net *network.Network, path string) error {
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	metadata, dataStart, err := readMetadata(lines)
	if err != nil {
		return err
	}

	totalDemand, err := metadataFloat(metadata, "TOTAL OD FLOW", -1)
	if err != nil {
		return err
	}
	if _, ok := metadata["NUMBER OF ZONES"]; ok {
		zones, err := metadataInt(metadata, "NUMBER OF ZONES")
		if err != nil {
			return err
		}
		if zones != net.NumZones() {
			return fmt.Errorf("%w: demand file has %d zones, network has %d",
				network.ErrConfiguration, zones, net.NumZones())
		}
	}

	seenOrigins := make(map[int32]struct{})
	var origin int32

	for _, line := range lines[dataStart:] {
		line = stripComment(line)
		if line == "" {
			continue
		}
		data := strings.Fields(line)

		if data[0] == "Origin" {
			if len(data) < 2 {
				return fmt.Errorf("%w: origin line missing node ID: %q", network.ErrConfiguration, line)
			}
			o, err := strconv.Atoi(data[1])
			if err != nil {
				return fmt.Errorf("%w: bad origin node ID %q", network.ErrConfiguration, data[1])
			}
			origin = int32(o)
			if _, ok := seenOrigins[origin]; ok {
				return fmt.Errorf("%w: origin %d shows up more than once in the demand file",
					network.ErrConfiguration, origin)
			}
			seenOrigins[origin] = struct{}{}
			continue
		}
		if origin == 0 {
			return fmt.Errorf("%w: demand record before any Origin line: %q",
				network.ErrConfiguration, line)
		}

		// each record is "destination : demand;"
		if len(data)%3 != 0 {
			return fmt.Errorf("%w: demand data line not formatted properly: %q",
				network.ErrConfiguration, line)
		}
		for i := 0; i < len(data)/3; i++ {
			d, err := strconv.Atoi(data[i*3])
			if err != nil {
				return fmt.Errorf("%w: bad destination node ID %q", network.ErrConfiguration, data[i*3])
			}
			if data[i*3+1] != ":" {
				return fmt.Errorf("%w: demand data line not formatted properly: %q",
					network.ErrConfiguration, line)
			}
			raw := strings.TrimSuffix(data[i*3+2], ";")
			demand, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("%w: bad demand value %q", network.ErrConfiguration, raw)
			}
			if err := net.AddODPair(origin, int32(d), demand); err != nil {
				return err
			}
		}
	}

	if totalDemand >= 0 && math.Abs(net.TotalDemand()-totalDemand) > 1e-6 {
		return fmt.Errorf("%w: loaded demand %g does not match metadata total %g",
			network.ErrConfiguration, net.TotalDemand(), totalDemand)
	}
	return nil
}
