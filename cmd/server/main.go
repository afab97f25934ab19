package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"traffix/pkg/engine/assignment"
	"traffix/pkg/server/rest"
	"traffix/pkg/server/rest/service"
	"traffix/pkg/tntp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var (
	listenAddr = flag.String("listenaddr", ":5000", "server listen address")
	netFile    = flag.String("net", "SiouxFalls_net.tntp", "TNTP network file")
	tripsFile  = flag.String("trips", "SiouxFalls_trips.tntp", "TNTP trips (OD demand) file")
)

func main() {
	flag.Parse()

	net, err := tntp.ReadNetworkFile(*netFile)
	if err != nil {
		log.Fatal(err)
	}
	if err := tntp.ReadDemandFile(net, *tripsFile); err != nil {
		log.Fatal(err)
	}
	log.Printf("network loaded: %d nodes, %d links, %d zones, total demand %g",
		net.NumNodes(), net.NumLinks(), net.NumZones(), net.TotalDemand())

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.Use(rest.PromHTTPMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	engine := assignment.NewEngine(net)
	assignmentSvc := service.NewAssignmentService(engine, net)

	rest.AssignmentRouter(r, assignmentSvc, m)

	fmt.Printf("\nserver started at %s\n", *listenAddr)

	log.Fatal(http.ListenAndServe(*listenAddr, r))
}
