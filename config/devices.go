package config

import (
	"encoding/binary"
	"sync"

	"github.com/manticoreos/manticore/abi"
)

// Device is one acquirable resource's configuration, behind the
// acquire/get_config syscall pair. Devices are named by string,
// following the acquire syscall's own "(name, flags)" signature.
type Device struct {
	Name    string
	MAC     [6]byte
	IOQueue abi.V
}

// Registry is the kernel's concrete syscall.DeviceRegistry: it maps
// acquired file descriptors back to the Device they name, so
// get_config can answer ConfigEthernetMACAddress/ConfigIOQueue
// queries against whichever device a process opened.
type Registry struct {
	mu      sync.Mutex
	devices map[string]*Device
	fds     map[int]*Device
	nextFD  int
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]*Device), fds: make(map[int]*Device)}
}

// Add registers a device by name, available for later Acquire calls.
func (r *Registry) Add(d *Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[d.Name] = d
}

// Acquire implements syscall.DeviceRegistry: it looks up name and
// hands back a fresh descriptor. ENOENT would be the natural code
// for an unknown device name, but the kernel's errno set is
// deliberately sparse, so it is reported as EINVAL, the catch-all
// "bad argument" code.
func (r *Registry) Acquire(name string, flags uint64) (int, abi.Errno) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok {
		return 0, abi.EINVAL
	}
	fd := r.nextFD
	r.nextFD++
	r.fds[fd] = d
	return fd, 0
}

// GetConfig implements syscall.DeviceRegistry.
func (r *Registry) GetConfig(fd int, opt uint32, buf []byte) (int, abi.Errno) {
	r.mu.Lock()
	d, ok := r.fds[fd]
	r.mu.Unlock()
	if !ok {
		return 0, abi.EINVAL
	}
	switch opt {
	case abi.ConfigEthernetMACAddress:
		if len(buf) < len(d.MAC) {
			return 0, abi.EINVAL
		}
		copy(buf, d.MAC[:])
		return len(d.MAC), 0
	case abi.ConfigIOQueue:
		if len(buf) < 8 {
			return 0, abi.EINVAL
		}
		binary.LittleEndian.PutUint64(buf, uint64(d.IOQueue))
		return 8, 0
	default:
		return 0, abi.EINVAL
	}
}
