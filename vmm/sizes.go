package vmm

// PageSizeSmall and PageSizeLarge mirror mem.PageSizeSmall/PageSizeLarge.
// They are restated here (rather than imported) so vmm's page-table
// arithmetic has no import-cycle risk with mem, which itself has no
// reason to depend on vmm.
const (
	PageSizeSmall = 1 << 12
	PageSizeLarge = 1 << 21
)
