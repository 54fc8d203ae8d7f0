package wifiinfo

import "time"

type ServerConfig struct {
	DataDir     string
	Backend     string
	Interface   string
	Bind        string
	Port        int
	Password    string
	Verbose     bool
	ScanTimeout time.Duration
}

const (
	BackendAuto           = "auto"
	BackendNetworkManager = "networkmanager"
	BackendNL80211        = "nl80211"

	DefaultScanTimeout = 30 * time.Second
)
