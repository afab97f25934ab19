// Package tntp reads network topology and OD demand files in the TNTP
// format (https://github.com/bstabler/TransportationNetworks) and populates
// a network.Network. The assignment engine itself never touches files; this
// package is the loading collaborator.
package tntp

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"traffix/pkg/network"
)

const endOfMetadata = "<END OF METADATA>"

// readMetadata collects the `<KEY> value` header block and returns it along
// with the index of the first line after <END OF METADATA>.
func readMetadata(lines []string) (map[string]string, int, error) {
	metadata := make(map[string]string)
	for i, line := range lines {
		line = stripComment(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, endOfMetadata) {
			return metadata, i + 1, nil
		}
		if !strings.HasPrefix(line, "<") {
			// some files omit the end marker; treat the first non-tag line
			// as the start of the data section
			return metadata, i, nil
		}
		closing := strings.Index(line, ">")
		if closing < 0 {
			return nil, 0, fmt.Errorf("%w: malformed metadata line %q", network.ErrConfiguration, line)
		}
		key := strings.TrimSpace(line[1:closing])
		value := strings.TrimSpace(line[closing+1:])
		metadata[key] = value
	}
	return metadata, len(lines), nil
}

func stripComment(line string) string {
	if pos := strings.Index(line, "~"); pos >= 0 {
		line = line[:pos]
	}
	return strings.TrimSpace(line)
}

func readLines(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n"), nil
}

func metadataInt(metadata map[string]string, key string) (int, error) {
	raw, ok := metadata[key]
	if !ok {
		return 0, fmt.Errorf("%w: metadata <%s> missing", network.ErrConfiguration, key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: metadata <%s> is not an integer: %q", network.ErrConfiguration, key, raw)
	}
	return v, nil
}

func metadataFloat(metadata map[string]string, key string, defaultVal float64) (float64, error) {
	raw, ok := metadata[key]
	if !ok {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: metadata <%s> is not a number: %q", network.ErrConfiguration, key, raw)
	}
	return v, nil
}

// ReadNetworkFile parses a TNTP network file into a validated Network with
// free-flow costs already computed. Zones are the nodes with the lowest IDs
// (1..numZones).
func ReadNetworkFile(path string) (*network.Network, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	metadata, dataStart, err := readMetadata(lines)
	if err != nil {
		return nil, err
	}

	numNodes, err := metadataInt(metadata, "NUMBER OF NODES")
	if err != nil {
		return nil, err
	}
	numLinks, err := metadataInt(metadata, "NUMBER OF LINKS")
	if err != nil {
		return nil, err
	}
	numZones, err := metadataInt(metadata, "NUMBER OF ZONES")
	if err != nil {
		return nil, err
	}
	firstThroughNode := 1
	if _, ok := metadata["FIRST THRU NODE"]; ok {
		firstThroughNode, err = metadataInt(metadata, "FIRST THRU NODE")
		if err != nil {
			return nil, err
		}
	}
	tollFactor, err := metadataFloat(metadata, "TOLL FACTOR", 0)
	if err != nil {
		return nil, err
	}
	distanceFactor, err := metadataFloat(metadata, "DISTANCE FACTOR", 0)
	if err != nil {
		return nil, err
	}

	net, err := network.New(numZones, numNodes, int32(firstThroughNode), tollFactor, distanceFactor)
	if err != nil {
		return nil, err
	}

	for _, line := range lines[dataStart:] {
		line = stripComment(line)
		if line == "" {
			continue
		}

		data := strings.Fields(line)
		if len(data) < 11 || data[10] != ";" {
			return nil, fmt.Errorf("%w: link data line not formatted properly: %q",
				network.ErrConfiguration, line)
		}

		fields := make([]float64, 9)
		for i := 0; i < 9; i++ {
			fields[i], err = strconv.ParseFloat(data[i], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad numeric field %q in link line %q",
					network.ErrConfiguration, data[i], line)
			}
		}

		tail := int32(fields[0])
		head := int32(fields[1])
		if _, err := net.AddLink(tail, head,
			fields[2], // capacity
			fields[3], // length
			fields[4], // free-flow time
			fields[5], // BPR alpha
			fields[6], // BPR beta
			fields[7], // speed limit
			fields[8], // toll
			data[9],   // link type
		); err != nil {
			return nil, err
		}
	}

	if net.NumLinks() != numLinks {
		return nil, fmt.Errorf("%w: created %d links, metadata says %d",
			network.ErrConfiguration, net.NumLinks(), numLinks)
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	return net, nil
}
