package dashboard

import (
	"fmt"
	"strconv"

	"github.com/earth-module/tem-dashboard/internal/model"
)

// heapCapacity is the module's total heap in bytes.
const heapCapacity = 520000

// DeviceInfo holds display strings; empty means "not reported".
type DeviceInfo struct {
	Hostname    string `json:"hostname"`
	Version     string `json:"version,omitempty"`
	IP          string `json:"ip,omitempty"`
	SSID        string `json:"ssid,omitempty"`
	Signal      string `json:"signal,omitempty"`
	Memory      string `json:"memory,omitempty"`
	Uptime      string `json:"uptime,omitempty"`
	Coordinates string `json:"coordinates,omitempty"`
	City        string `json:"city,omitempty"`
}

func FormatDevice(s model.StatusPayload) DeviceInfo {
	info := DeviceInfo{Hostname: Hostname(deref(s.DeviceID))}
	info.Version = deref(s.Version)
	info.IP = deref(s.IP)
	info.SSID = deref(s.SSID)
	info.City = deref(s.CityName)
	if s.RSSI != nil {
		info.Signal = strconv.Itoa(*s.RSSI) + " dBm"
	}
	if s.FreeHeap != nil {
		info.Memory = MemoryUsage(*s.FreeHeap)
	}
	if s.Uptime != nil && *s.Uptime > 0 {
		info.Uptime = Uptime(*s.Uptime)
	}
	if s.Latitude != nil && s.Longitude != nil {
		info.Coordinates = Coordinates(*s.Latitude, *s.Longitude)
	}
	return info
}

// Hostname returns the module's mDNS name.
func Hostname(deviceID string) string {
	if deviceID == "" {
		deviceID = "unknown"
	}
	return "tem-" + deviceID + ".local"
}

// MemoryUsage renders heap usage, e.g. "50% used".
func MemoryUsage(freeHeap int64) string {
	usage := 100 - float64(freeHeap)/heapCapacity*100
	return fmt.Sprintf("%.0f%% used", usage)
}

// Uptime renders seconds as "Xd Yh", or "Yh" below one day.
func Uptime(seconds int64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dh", hours)
}

func Coordinates(lat, lng float64) string {
	return fmt.Sprintf("%.4f°, %.4f°", lat, lng)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
