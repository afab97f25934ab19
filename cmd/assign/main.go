package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sort"

	"traffix/pkg/datastructure"
	"traffix/pkg/engine/assignment"
	"traffix/pkg/network"
	"traffix/pkg/tntp"

	ansi "github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

var (
	netFile      = flag.String("net", "SiouxFalls_net.tntp", "TNTP network file")
	tripsFile    = flag.String("trips", "SiouxFalls_trips.tntp", "TNTP trips (OD demand) file")
	snapshotFile = flag.String("snapshot", "", "binary network snapshot: loaded instead of the TNTP files if it exists, written after parsing otherwise")
	outFile      = flag.String("o", "flows.txt", "output file for equilibrium link flows")
	tolerance    = flag.Float64("tolerance", assignment.DefaultTolerance, "relative flow-change convergence criterion")
	maxIter      = flag.Int("maxiter", assignment.DefaultMaxIterations, "iteration bound for the MSA loop")
	cpuprofile   = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	net, err := loadNetwork()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("network loaded: %d nodes, %d links, %d zones, total demand %g",
		net.NumNodes(), net.NumLinks(), net.NumZones(), net.TotalDemand())

	bar := progressbar.NewOptions(*maxIter,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan]solving user equilibrium ...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	engine := assignment.NewEngine(net)
	summary, err := engine.SolveEquilibrium(
		assignment.WithTolerance(*tolerance),
		assignment.WithMaxIterations(*maxIter),
		assignment.WithProgress(func(iteration int, metric float64) {
			bar.Set(iteration)
		}),
	)
	bar.Finish()
	fmt.Println()

	var ncErr *assignment.NonConvergenceError
	if errors.As(err, &ncErr) {
		log.Printf("warning: %v (reporting best-known flows)", ncErr)
	} else if err != nil {
		log.Fatal(err)
	} else {
		log.Printf("converged after %d iterations, metric %g", summary.Iterations, summary.Metric)
	}

	if err := writeFlows(net, *outFile); err != nil {
		log.Fatal(err)
	}
	log.Printf("equilibrium link flows written to %s", *outFile)
}

func loadNetwork() (*network.Network, error) {
	if *snapshotFile != "" {
		if _, err := os.Stat(*snapshotFile); err == nil {
			log.Printf("loading network snapshot %s", *snapshotFile)
			return network.LoadFromFile(*snapshotFile)
		}
	}

	net, err := tntp.ReadNetworkFile(*netFile)
	if err != nil {
		return nil, err
	}
	if err := tntp.ReadDemandFile(net, *tripsFile); err != nil {
		return nil, err
	}

	if *snapshotFile != "" {
		if err := net.SaveToFile(*snapshotFile); err != nil {
			return nil, err
		}
		log.Printf("network snapshot written to %s", *snapshotFile)
	}
	return net, nil
}

func writeFlows(net *network.Network, path string) error {
	links := make([]*datastructure.Link, 0, net.NumLinks())
	for _, link := range net.Links() {
		links = append(links, link)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "tail\thead\tflow\tcost\n")
	for _, link := range links {
		fmt.Fprintf(f, "%d\t%d\t%f\t%f\n", link.Tail, link.Head, link.Flow, link.Cost)
	}
	return nil
}
