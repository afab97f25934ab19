package network

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/kelindar/binary"
	"github.com/klauspost/compress/zstd"
)

type linkSnapshot struct {
	ID           int32
	Tail         int32
	Head         int32
	Capacity     float64
	Length       float64
	FreeFlowTime float64
	Alpha        float64
	Beta         float64
	SpeedLimit   float64
	Toll         float64
	LinkType     string
	Flow         float64
}

type odSnapshot struct {
	Origin      int32
	Destination int32
	Demand      float64
}

type snapshot struct {
	NumZones         int
	NumNodes         int
	FirstThroughNode int32
	TollFactor       float64
	DistanceFactor   float64
	Links            []linkSnapshot
	Demands          []odSnapshot
}

// SaveToFile writes a compressed binary snapshot of the network (topology,
// demand, and current link flows) so it can be reloaded without re-parsing
// the TNTP files.
func (n *Network) SaveToFile(path string) error {
	snap := snapshot{
		NumZones:         n.numZones,
		NumNodes:         n.numNodes,
		FirstThroughNode: n.firstThroughNode,
		TollFactor:       n.tollFactor,
		DistanceFactor:   n.distanceFactor,
		Links:            make([]linkSnapshot, 0, n.numLinks),
		Demands:          make([]odSnapshot, 0),
	}
	for _, link := range n.links {
		snap.Links = append(snap.Links, linkSnapshot{
			ID:           link.ID,
			Tail:         link.Tail,
			Head:         link.Head,
			Capacity:     link.Capacity,
			Length:       link.Length,
			FreeFlowTime: link.FreeFlowTime,
			Alpha:        link.Alpha,
			Beta:         link.Beta,
			SpeedLimit:   link.SpeedLimit,
			Toll:         link.Toll,
			LinkType:     link.LinkType,
			Flow:         link.Flow,
		})
	}
	for _, dests := range n.odPairs {
		for _, od := range dests {
			snap.Demands = append(snap.Demands, odSnapshot{
				Origin:      od.Origin,
				Destination: od.Destination,
				Demand:      od.Demand,
			})
		}
	}
	// keep creation order so reloaded links get the same IDs
	sort.Slice(snap.Links, func(i, j int) bool { return snap.Links[i].ID < snap.Links[j].ID })

	encoded, err := binary.Marshal(snap)
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	encoder, err := zstd.NewWriter(buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return err
	}
	if _, err := encoder.Write(encoded); err != nil {
		encoder.Close()
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(buf.Bytes())
	return err
}

// LoadFromFile reads a snapshot written by SaveToFile and rebuilds the
// network through the same constructors the TNTP loader uses, so all
// load-time validation still applies.
func LoadFromFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	encoded, err := io.ReadAll(decoder)
	if err != nil {
		return nil, err
	}

	var snap snapshot
	if err := binary.Unmarshal(encoded, &snap); err != nil {
		return nil, err
	}

	net, err := New(snap.NumZones, snap.NumNodes, snap.FirstThroughNode,
		snap.TollFactor, snap.DistanceFactor)
	if err != nil {
		return nil, err
	}
	for _, ls := range snap.Links {
		link, err := net.AddLink(ls.Tail, ls.Head, ls.Capacity, ls.Length, ls.FreeFlowTime,
			ls.Alpha, ls.Beta, ls.SpeedLimit, ls.Toll, ls.LinkType)
		if err != nil {
			return nil, err
		}
		link.Flow = ls.Flow
	}
	for _, od := range snap.Demands {
		if err := net.AddODPair(od.Origin, od.Destination, od.Demand); err != nil {
			return nil, err
		}
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	net.UpdateAllCosts()
	return net, nil
}
