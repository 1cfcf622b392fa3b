package engine

// Runtime fallbacks used when neither the job nor the configuration carries
// an override. Real device discovery lives outside the harness; these keep a
// bare installation functional on any host.
const (
	DefaultDevice      = "cpu"
	DefaultVirtualVRAM = 8
	DefaultModelSource = "huggingface"
)

// ResolveRuntime builds the immutable runtime value for one run from, in
// precedence order, per-job overrides, configured defaults, and static
// fallbacks. For client backends the result is the zero Runtime: the remote
// server owns device and model placement.
func ResolveRuntime(backend, device string, virtualVRAM *int, modelSource string, defaults Runtime) Runtime {
	if ClientBackend(backend) {
		return Runtime{}
	}

	rt := Runtime{
		Device:      defaults.Device,
		VirtualVRAM: defaults.VirtualVRAM,
		ModelSource: defaults.ModelSource,
	}
	if rt.Device == "" {
		rt.Device = DefaultDevice
	}
	if rt.VirtualVRAM <= 0 {
		rt.VirtualVRAM = DefaultVirtualVRAM
	}
	if rt.ModelSource == "" {
		rt.ModelSource = DefaultModelSource
	}

	if device != "" {
		rt.Device = device
	}
	if virtualVRAM != nil && *virtualVRAM > 0 {
		rt.VirtualVRAM = *virtualVRAM
	}
	if modelSource != "" {
		rt.ModelSource = modelSource
	}
	return rt
}
