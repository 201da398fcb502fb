package device

import "fmt"

func init() {
	Register("skeleton", newSkeleton)
}

type skeletonState struct{}

// newSkeleton is the empty template device new modules are cloned from,
// grounded on original_source/src/hardware/skeleton.c: it claims one
// region and returns 0 for every access.
func newSkeleton(cfg Config, cb Callbacks) (*Descriptor, error) {
	start, ok, err := cfg.GetUint16("mem_start")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("skeleton: mem_start is required")
	}
	end, ok, err := cfg.GetUint16("mem_end")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("skeleton: mem_end is required")
	}

	return &Descriptor{
		Family: FamilyIO,
		Regions: []Region{
			{Start: start, End: end, Readable: true, Writable: true},
		},
		MemOp:       skeletonMemOp,
		State:       &skeletonState{},
		Description: fmt.Sprintf("skeleton $%04x-$%04x", start, end),
	}, nil
}

func skeletonMemOp(d *Descriptor, addr uint16, op Op, data byte) byte {
	return 0
}
