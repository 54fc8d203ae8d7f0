package network

import (
	"context"
	"fmt"
	"time"

	sdbus "github.com/coreos/go-systemd/v22/dbus"
	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/system/network/nm"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"
)

const networkManagerUnit = "NetworkManager.service"

// overridden in tests
var (
	networkManagerRunning = detectNetworkManager
	newNetworkManager     = func(config wifiinfo.ServerConfig, log logrus.FieldLogger) (wifiinfo.Platform, error) {
		return nm.New(config, log)
	}
	newNL80211 = func(config wifiinfo.ServerConfig, log logrus.FieldLogger) (wifiinfo.Platform, error) {
		return NewNL80211Platform(config, log), nil
	}
)

// chooseBackend resolves "auto" (or empty) against what is running.
func chooseBackend(requested string, nmRunning bool) (string, error) {
	switch requested {
	case "", wifiinfo.BackendAuto:
		if nmRunning {
			return wifiinfo.BackendNetworkManager, nil
		}
		return wifiinfo.BackendNL80211, nil
	case wifiinfo.BackendNetworkManager, wifiinfo.BackendNL80211:
		return requested, nil
	}
	return "", fmt.Errorf("unknown backend %q, expected one of %s, %s, %s",
		requested, wifiinfo.BackendAuto, wifiinfo.BackendNetworkManager, wifiinfo.BackendNL80211)
}

/* NewPlatform discovers which stack owns the radio. When
 * NetworkManager is running it must be asked, since it would
 * undo anything done behind its back. Otherwise we talk to
 * nl80211 ourselves. An explicit backend skips discovery.
 */
func NewPlatform(ctx context.Context, config wifiinfo.ServerConfig, log logrus.FieldLogger) (wifiinfo.Platform, error) {
	running := false
	if config.Backend == "" || config.Backend == wifiinfo.BackendAuto {
		running = networkManagerRunning(ctx, log)
	}

	backend, err := chooseBackend(config.Backend, running)
	if err != nil {
		return nil, err
	}

	if backend == wifiinfo.BackendNL80211 {
		return newNL80211(config, log)
	}

	p, err := newNetworkManager(config, log)
	if err == nil {
		return p, nil
	}
	if config.Backend == wifiinfo.BackendNetworkManager {
		return nil, err
	}

	log.Warnf("NetworkManager is running but unreachable (%s), falling back to nl80211", err)
	return newNL80211(config, log)
}

func detectNetworkManager(ctx context.Context, log logrus.FieldLogger) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	active, err := unitActive(ctx, networkManagerUnit)
	if err == nil {
		return active
	}
	log.Debugf("Could not ask systemd about %s: %s", networkManagerUnit, err)

	// no systemd, look for the daemon itself
	running, err := processRunning(ctx, "NetworkManager")
	if err != nil {
		log.Debugf("Could not list processes: %s", err)
		return false
	}
	return running
}

func unitActive(ctx context.Context, unit string) (bool, error) {
	conn, err := sdbus.NewWithContext(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	pidProp, err := conn.GetServicePropertyContext(ctx, unit, "MainPID")
	if err != nil {
		return false, err
	}
	pid, ok := pidProp.Value.Value().(uint32)
	if !ok || pid == 0 {
		return false, nil
	}

	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return false, nil
	}
	return proc.IsRunningWithContext(ctx)
}

func processRunning(ctx context.Context, name string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
