//go:build pcap
// +build pcap

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/google/uuid"

	"github.com/banshee-data/lidar-odometry/internal/odometry"
	"github.com/banshee-data/lidar-odometry/internal/odometry/store"
)

// replayPCAP decodes every UDP packet in pcapFile, converts its payload to
// a PointCloud via decodeLidarPayload, and feeds it to est one scan at a
// time. It is only available when built with the pcap tag, since it links
// against libpcap through gopacket/pcap.
func replayPCAP(ctx context.Context, est *odometry.Estimator, st *store.Store, pcapFile string) error {
	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("open pcap file %s: %w", pcapFile, err)
	}
	defer handle.Close()

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	sweepStart := time.Now()
	scans := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case packet := <-packetSource.Packets():
			if packet == nil {
				log.Printf("pcap replay complete: %d scans processed", scans)
				return nil
			}

			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp, ok := udpLayer.(*layers.UDP)
			if !ok || len(udp.Payload) == 0 {
				continue
			}

			cloud, ok := decodeLidarPayload(udp.Payload, packet.Metadata().Timestamp)
			if !ok {
				continue
			}

			if err := est.AddScan(cloud); err != nil && err != odometry.ErrInsufficientCorrespondences {
				log.Printf("pcap replay: scan %d: %v", scans, err)
			}
			scans++

			if time.Since(sweepStart) >= 100*time.Millisecond {
				if err := est.FinishSweep(float64(packet.Metadata().Timestamp.UnixMicro()) / 1e6); err != nil {
					return err
				}
				if err := st.RecordSweep(ctx, uuid.New(), time.Now(), est.TransformSum()); err != nil {
					return err
				}
				sweepStart = time.Now()
			}
		}
	}
}

// decodeLidarPayload converts one UDP payload into a PointCloud. The wire
// format of any specific sensor's UDP frame is acquisition-adjacent and
// out of scope here; callers building against a real sensor should supply
// their own decoder with the same signature.
func decodeLidarPayload(payload []byte, ts time.Time) (odometry.PointCloud, bool) {
	return odometry.PointCloud{}, false
}
