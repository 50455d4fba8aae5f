package demo

import (
	"context"
	"net"
	"strings"

	"github.com/rileyhilliard/fleetwatch/internal/model"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// GB converts byte counts into the gigabyte figures the service reports.
const GB = 1024 * 1024 * 1024

// DefaultTopProcesses is how many processes each snapshot lists.
const DefaultTopProcesses = 10

// Identity describes the machine being served.
type Identity struct {
	Hostname   string
	IPAddress  string
	MACAddress string
	OSInfo     string
}

// Sampler reads the local machine. Tests substitute a canned implementation.
type Sampler interface {
	Identity(ctx context.Context) (Identity, error)
	Sample(ctx context.Context) (model.Snapshot, error)
}

// SystemSampler collects metrics through gopsutil.
type SystemSampler struct {
	// TopProcesses caps the process list; zero means DefaultTopProcesses.
	TopProcesses int
}

// NewSystemSampler returns a sampler listing the top n processes by CPU.
func NewSystemSampler(n int) *SystemSampler {
	return &SystemSampler{TopProcesses: n}
}

// Identity reads the hostname, OS and the first non-loopback interface.
func (s *SystemSampler) Identity(ctx context.Context) (Identity, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{
		Hostname: info.Hostname,
		OSInfo:   osInfo(info.OS, info.Platform, info.PlatformVersion),
	}

	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		// Addresses are cosmetic; the host is still usable without them.
		return id, nil
	}
	for _, iface := range ifaces {
		if hasFlag(iface.Flags, "loopback") || !hasFlag(iface.Flags, "up") {
			continue
		}
		ip := firstIPv4(iface.Addrs)
		if ip == "" {
			continue
		}
		id.IPAddress = ip
		id.MACAddress = iface.HardwareAddr
		break
	}
	return id, nil
}

// Sample takes one snapshot. CPU and memory are required; disks, network and
// processes are best-effort and left empty when unreadable.
func (s *SystemSampler) Sample(ctx context.Context) (model.Snapshot, error) {
	percent, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return model.Snapshot{}, err
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}

	snap := model.Snapshot{
		MemoryUsed:       float64(vm.Used) / GB,
		MemoryTotal:      float64(vm.Total) / GB,
		RunningProcesses: s.topProcesses(ctx),
		DiskUsage:        diskUsage(ctx),
		NetworkStats:     networkStats(ctx),
	}
	if len(percent) > 0 {
		snap.CPUUsage = percent[0]
	}
	return snap, nil
}

func (s *SystemSampler) topProcesses(ctx context.Context) []model.ProcessEntry {
	n := s.TopProcesses
	if n <= 0 {
		n = DefaultTopProcesses
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return []model.ProcessEntry{}
	}

	entries := make([]model.ProcessEntry, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Process exited or is not ours to inspect.
			continue
		}
		cpuPct, _ := p.CPUPercentWithContext(ctx)
		memPct, _ := p.MemoryPercentWithContext(ctx)
		entries = append(entries, model.ProcessEntry{
			PID:           int(p.Pid),
			Name:          name,
			CPUPercent:    cpuPct,
			MemoryPercent: float64(memPct),
		})
	}
	return model.TopProcesses(entries, n)
}

func diskUsage(ctx context.Context) map[string]model.DiskUsage {
	out := make(map[string]model.DiskUsage)
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return out
	}
	for _, p := range partitions {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		out[p.Mountpoint] = model.DiskUsage{
			Total:   float64(usage.Total) / GB,
			Used:    float64(usage.Used) / GB,
			Percent: usage.UsedPercent,
		}
	}
	return out
}

func networkStats(ctx context.Context) model.NetworkStats {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil || len(counters) == 0 {
		return model.NetworkStats{}
	}
	c := counters[0]
	return model.NetworkStats{
		BytesSent:   c.BytesSent,
		BytesRecv:   c.BytesRecv,
		PacketsSent: c.PacketsSent,
		PacketsRecv: c.PacketsRecv,
	}
}

func osInfo(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func firstIPv4(addrs psnet.InterfaceAddrList) string {
	for _, a := range addrs {
		ip, _, err := net.ParseCIDR(a.Addr)
		if err != nil {
			ip = net.ParseIP(a.Addr)
		}
		if ip != nil && ip.To4() != nil {
			return ip.String()
		}
	}
	return ""
}
