//go:build !pcap
// +build !pcap

package main

import (
	"context"
	"fmt"

	"github.com/banshee-data/lidar-odometry/internal/odometry"
	"github.com/banshee-data/lidar-odometry/internal/odometry/store"
)

// replayPCAP reports that pcap replay is unavailable in this build. Build
// with -tags pcap to link the gopacket/pcap decoder.
func replayPCAP(ctx context.Context, est *odometry.Estimator, st *store.Store, pcapFile string) error {
	return fmt.Errorf("odometry-replay: built without the pcap tag; rebuild with -tags pcap to replay %s", pcapFile)
}
