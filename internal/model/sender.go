package model

// SenderKind distinguishes the three shapes a provisional sender reference
// can take once the analyzer has looked at a transaction's first input.
type SenderKind int

const (
	// SenderUnknown means the first input carried neither an inline
	// address nor a previous-output reference.
	SenderUnknown SenderKind = iota
	// SenderInline means the first input already named its address.
	SenderInline
	// SenderUnresolved means the first input named a previous output
	// (txid, vout) that must be resolved through the chain client.
	SenderUnresolved
)

// SenderRef is a tagged union replacing a sentinel string such as
// "prev:<txid>:<vout>". Exactly one of the three shapes applies, selected
// by Kind.
type SenderRef struct {
	Kind    SenderKind
	Address string // valid when Kind == SenderInline
	TxID    string // valid when Kind == SenderUnresolved
	Vout    uint32 // valid when Kind == SenderUnresolved
}

// Inline builds a resolved, inline sender reference.
func Inline(address string) SenderRef {
	return SenderRef{Kind: SenderInline, Address: address}
}

// Unresolved builds a reference to a previous output that still needs
// resolving.
func Unresolved(txid string, vout uint32) SenderRef {
	return SenderRef{Kind: SenderUnresolved, TxID: txid, Vout: vout}
}

// UnknownSender is the zero-information sender reference.
var UnknownSender = SenderRef{Kind: SenderUnknown}

// Resolved reports whether this reference already names an address.
func (s SenderRef) Resolved() bool {
	return s.Kind == SenderInline
}
