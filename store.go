package imap

// StoreFlagsOp selects how StoreFlags.Flags is applied to a message's
// flag list: replace it, add to it, or remove from it.
type StoreFlagsOp int

const (
	StoreFlagsSet StoreFlagsOp = iota
	StoreFlagsAdd
	StoreFlagsDel
)

// StoreFlags is the argument to a STORE command.
type StoreFlags struct {
	Op     StoreFlagsOp
	Silent bool
	Flags  []Flag
}
