// Command odometry-replay drives the odometry estimator from either a
// deterministic synthetic scan source or a recorded pcap capture, logging
// periodic pose statistics and recording the trajectory to SQLite.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/lidar-odometry/internal/odometry"
	"github.com/banshee-data/lidar-odometry/internal/odometry/store"
	"github.com/banshee-data/lidar-odometry/internal/odometry/synth"
)

var (
	dbFile       = flag.String("db", "odometry.db", "Path to the SQLite trajectory database")
	pcapFile     = flag.String("pcap", "", "Path to a recorded pcap capture to replay (requires the pcap build tag)")
	synthetic    = flag.Bool("synthetic", true, "Drive the estimator from a synthetic scan source instead of -pcap")
	sweepCount   = flag.Int("sweeps", 20, "Number of synthetic sweeps to generate")
	scansPerSwp  = flag.Int("scans-per-sweep", 8, "Number of scans per synthetic sweep")
	pointsPerScn = flag.Int("points-per-scan", 180, "Number of points per synthetic scan")
	sweepPeriod  = flag.Duration("sweep-period", 100*time.Millisecond, "Wall-clock duration of one sweep")
	logInterval  = flag.Int("log-interval", 5, "Sweep-count interval between progress log lines")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(*dbFile)
	if err != nil {
		log.Fatalf("odometry-replay: open store: %v", err)
	}
	defer st.Close()

	est := odometry.NewEstimator(odometry.DefaultConfig())

	if *pcapFile != "" {
		if err := replayPCAP(ctx, est, st, *pcapFile); err != nil {
			log.Fatalf("odometry-replay: pcap replay: %v", err)
		}
		return
	}

	if !*synthetic {
		log.Fatalf("odometry-replay: -pcap not given and -synthetic disabled; nothing to replay")
	}
	if err := replaySynthetic(ctx, est, st); err != nil {
		log.Fatalf("odometry-replay: synthetic replay: %v", err)
	}
}

func replaySynthetic(ctx context.Context, est *odometry.Estimator, st *store.Store) error {
	scanPeriod := *sweepPeriod / time.Duration(*scansPerSwp)
	var elapsed time.Duration

	for sweep := 0; sweep < *sweepCount; sweep++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		dx := 0.1 * float64(sweep)
		for scan := 0; scan < *scansPerSwp; scan++ {
			cloud := synth.LineSegmentSweep(*pointsPerScn, dx, 0, 0, elapsed.Microseconds())
			if err := est.AddScan(cloud); err != nil && err != odometry.ErrInsufficientCorrespondences {
				log.Printf("odometry-replay: sweep %d scan %d: %v", sweep, scan, err)
			}
			elapsed += scanPeriod
		}

		if err := est.FinishSweep(elapsed.Seconds()); err != nil {
			return err
		}

		if sweep%*logInterval == 0 {
			sum := est.TransformSum()
			log.Printf("sweep %d: transformSum = (tx=%.4f ty=%.4f tz=%.4f rx=%.4f ry=%.4f rz=%.4f)",
				sweep, sum.Tx, sum.Ty, sum.Tz, sum.Rx, sum.Ry, sum.Rz)
		}

		if err := st.RecordSweep(ctx, uuid.New(), time.Now(), est.TransformSum()); err != nil {
			return err
		}
	}
	return nil
}
