package wireless

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/intothedarkness/ScrCpyHelper/internal/adb"
)

// Check resolves the device's IP and reports whether snap holds an online
// device with serial ip:port. ip is empty when it cannot be resolved.
// snap should come from a fresh enumeration, never a cached one.
func Check(ctx context.Context, client *adb.Client, d adb.Device, snap adb.Snapshot, port int) (ip string, online bool) {
	ip, err := client.DeviceIP(ctx, d.Serial)
	if err != nil {
		log.Debug().Err(err).Str("serial", d.Serial).Msg("[Check] no address")
		return "", false
	}
	return ip, snap.OnlineAt(ip, port)
}

// onlineNow re-enumerates and checks for ip:port.
func onlineNow(ctx context.Context, client *adb.Client, ip string, port int) (bool, error) {
	snap, err := client.Devices(ctx)
	if err != nil {
		return false, err
	}
	return snap.OnlineAt(ip, port), nil
}
