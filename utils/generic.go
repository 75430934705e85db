// Package utils contains helpers shared across kasa components.
package utils

import (
	"fmt"
	"net"
	"os"
	"time"
)

// TimeNow returns epoch UTC.
func TimeNow() int64 {
	return time.Now().UTC().Unix()
}

// GetCurrentWorkingDir returns application working directory.
func GetCurrentWorkingDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		panic("Failed to get current working dir")
	}

	return cwd
}

// GetDefaultConfigsDir returns default config directory which is cwd/configs.
func GetDefaultConfigsDir() string {
	if ConfigDir != "" {
		return ConfigDir
	}

	return fmt.Sprintf("%s/configs", GetCurrentWorkingDir())
}

// ConfigDir allows to re-write default config directory.
var ConfigDir = ""

// NetworkFromBroadcast returns /24 network of the broadcast address.
// Limited broadcast falls back to the first private network of local interfaces.
func NetworkFromBroadcast(broadcast string) (*net.IPNet, error) {
	ip := net.ParseIP(broadcast).To4()
	if nil == ip {
		return nil, &ErrInvalidConfig{}
	}

	if ip.Equal(net.IPv4bcast) {
		local := localNetwork()
		if nil == local {
			return nil, &ErrNoLocalNetwork{}
		}

		ip = local
	}

	mask := net.CIDRMask(24, 32)
	return &net.IPNet{IP: ip.Mask(mask), Mask: mask}, nil
}

// Returns first non-loopback IPv4 address.
func localNetwork() net.IP {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}

	for _, v := range addrs {
		n, ok := v.(*net.IPNet)
		if !ok || n.IP.IsLoopback() {
			continue
		}

		if ip := n.IP.To4(); nil != ip {
			return ip
		}
	}

	return nil
}

// NetworkHosts returns all host addresses of the network.
func NetworkHosts(network *net.IPNet) []string {
	result := make([]string, 0)
	ip := network.IP.Mask(network.Mask).To4()
	if nil == ip {
		return result
	}

	ones, bits := network.Mask.Size()
	size := 1 << uint(bits-ones)
	start := uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
	for ii := 1; ii < size-1; ii++ {
		v := start + uint32(ii)
		result = append(result, net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v)).String())
	}

	return result
}
