package tracedata

// Association is opaque user data attached to a Function, tagged by a small
// integer rtti so layered analyses can find their own attachments without
// widening the core types. Rtti zero is reserved to mean "all" in batch
// operations.
type Association interface {
	// Rtti returns the tag identifying the attaching analysis.
	Rtti() int

	// Invalidate marks the attachment stale; the owning analysis decides
	// what that means.
	Invalidate()
}

// ClearAssociations removes associations with the rtti tag from every
// function, all associations when rtti is zero.
func (d *Data) ClearAssociations(rtti int) {
	for _, function := range d.functionMap {
		function.RemoveAssociations(rtti)
	}
}

// InvalidateAssociations invalidates associations with the rtti tag on
// every function, all associations when rtti is zero.
func (d *Data) InvalidateAssociations(rtti int) {
	for _, function := range d.functionMap {
		function.InvalidateAssociations(rtti)
	}
}
