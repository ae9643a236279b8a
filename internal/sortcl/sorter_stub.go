//go:build !gpu

package sortcl

// Sorter is a placeholder when GPU support is not compiled in.
type Sorter struct{}

// New always fails without GPU support.
func New(rt *Runtime) (*Sorter, error) {
	return nil, ErrNotBuilt
}

// SubgroupWidth returns 0 without GPU support.
func (s *Sorter) SubgroupWidth() int { return 0 }

// KeyvalBuffers is a placeholder when GPU support is not compiled in.
type KeyvalBuffers struct{}

// CreateKeyvalBuffers always fails without GPU support.
func (s *Sorter) CreateKeyvalBuffers(keysize int) (*KeyvalBuffers, error) {
	return nil, ErrNotBuilt
}

// Release is a no-op without GPU support.
func (kv *KeyvalBuffers) Release() {}

// InternalScratch is a placeholder when GPU support is not compiled in.
type InternalScratch struct{}

// CreateInternalMemBuffer always fails without GPU support.
func (s *Sorter) CreateInternalMemBuffer(keysize int) (*InternalScratch, error) {
	return nil, ErrNotBuilt
}

// Release is a no-op without GPU support.
func (is *InternalScratch) Release() {}

// BindGroup is a placeholder when GPU support is not compiled in.
type BindGroup struct{}

// CreateBindGroup always fails without GPU support.
func (s *Sorter) CreateBindGroup(keysize int, scratch *InternalScratch, kv *KeyvalBuffers) (*BindGroup, error) {
	return nil, ErrNotBuilt
}

// Release is a no-op without GPU support.
func (bg *BindGroup) Release() {}

// Encoder is a placeholder when GPU support is not compiled in.
type Encoder struct{}

// NewEncoder returns an empty, unusable encoder without GPU support.
func NewEncoder() *Encoder { return &Encoder{} }

// Submit always fails without GPU support.
func (e *Encoder) Submit(rt *Runtime) error { return ErrNotBuilt }

// RecordCalculateHistogram always fails without GPU support.
func (s *Sorter) RecordCalculateHistogram(bg *BindGroup, keysize int, enc *Encoder) error {
	return ErrNotBuilt
}

// RecordPrefixHistogram always fails without GPU support.
func (s *Sorter) RecordPrefixHistogram(bg *BindGroup, passes int, enc *Encoder) error {
	return ErrNotBuilt
}

// RecordScatterKeys always fails without GPU support.
func (s *Sorter) RecordScatterKeys(bg *BindGroup, passes int, keysize int, enc *Encoder) error {
	return ErrNotBuilt
}

// RecordSort always fails without GPU support.
func (s *Sorter) RecordSort(bg *BindGroup, keysize int, enc *Encoder) error {
	return ErrNotBuilt
}

// Close is a no-op without GPU support.
func (s *Sorter) Close() {}
