package layerdocx

type Limits struct {
	MaxEntries        int
	MaxLayers         int
	MaxPayloadSize    uint64 // per layer, after decompression
	MaxDescriptorSize uint64
	MaxManifestSize   uint64
	MaxRunInfoSize    uint64
	MaxTotalPayload   uint64 // sum over all layers, after decompression
}

func defaultLimits() Limits {
	return Limits{
		MaxEntries:        20_000,
		MaxLayers:         10_000,
		MaxPayloadSize:    64 << 20, // 64 MiB
		MaxDescriptorSize: 64 << 10, // 64 KiB
		MaxManifestSize:   4 << 20,
		MaxRunInfoSize:    16 << 20,
		MaxTotalPayload:   1 << 30,
	}
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxEntries == 0 {
		l.MaxEntries = d.MaxEntries
	}
	if l.MaxLayers == 0 {
		l.MaxLayers = d.MaxLayers
	}
	if l.MaxPayloadSize == 0 {
		l.MaxPayloadSize = d.MaxPayloadSize
	}
	if l.MaxDescriptorSize == 0 {
		l.MaxDescriptorSize = d.MaxDescriptorSize
	}
	if l.MaxManifestSize == 0 {
		l.MaxManifestSize = d.MaxManifestSize
	}
	if l.MaxRunInfoSize == 0 {
		l.MaxRunInfoSize = d.MaxRunInfoSize
	}
	if l.MaxTotalPayload == 0 {
		l.MaxTotalPayload = d.MaxTotalPayload
	}
	return l
}
