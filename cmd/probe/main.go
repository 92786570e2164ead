package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ryandielhenn/seedprobe/internal/telemetry"
	"github.com/ryandielhenn/seedprobe/pkg/probe"
	"github.com/ryandielhenn/seedprobe/pkg/seedclient"
)

// logNotifier reports probe outcomes to the log. A real coordinator would
// join the observed seeds or form a new cluster here.
type logNotifier struct {
	log *zap.Logger
}

func (n *logNotifier) NoSeedsObserved(target string) {
	n.log.Info("no seed nodes within stable margin, eligible to form a new cluster",
		zap.String("target", target))
}

func (n *logNotifier) SeedsObserved(selfNode string, seedNodes []string) {
	n.log.Info("cluster exists, join via observed seed nodes",
		zap.String("selfNode", selfNode),
		zap.Strings("seedNodes", seedNodes))
}

func (n *logNotifier) ProbingFailed(target string, cause error) {
	n.log.Error("probing gave up, candidate discovery should be re-run",
		zap.String("target", target),
		zap.Error(cause))
}

func main() {
	var (
		target         = flag.String("target", "", "candidate host:port to probe")
		self           = flag.String("self", "", "this node's own host:port")
		interval       = flag.Duration("interval", time.Second, "base delay between probe attempts")
		jitter         = flag.Float64("jitter", 0.2, "fractional randomization of the probe interval, in [0,1]")
		margin         = flag.Duration("no-seeds-margin", 5*time.Second, "how long empty observations must persist before hinting new-cluster formation")
		failureTimeout = flag.Duration("failure-timeout", 30*time.Second, "how long continuous probe failure is tolerated before giving up")
		formNewCluster = flag.Bool("form-new-cluster", false, "permit this node to hint new-cluster formation")
		requestTimeout = flag.Duration("request-timeout", seedclient.DefaultRequestTimeout, "per-attempt HTTP timeout")
		metricsAddr    = flag.String("metrics-addr", ":9090", "listen address for /metrics")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *target == "" || *self == "" {
		logger.Fatal("both -target and -self are required")
	}

	settings := probe.Settings{
		ProbeInterval:         *interval,
		JitterFactor:          *jitter,
		NoSeedsStableMargin:   *margin,
		ProbingFailureTimeout: *failureTimeout,
		FormNewCluster:        *formNewCluster,
		SelfAddr:              *self,
		Logger:                logger,
	}

	querier := seedclient.New(*requestTimeout, logger)
	p, err := probe.New(*target, settings, querier, &logNotifier{log: logger})
	if err != nil {
		logger.Fatal("prober construction failed", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	go func() {
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()

	logger.Info("probing candidate", zap.String("target", p.Target()), zap.String("self", *self))
	p.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-p.Done():
		logger.Info("prober finished", zap.String("state", p.State().String()))
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
		p.Stop()
		<-p.Done()
	}
}
