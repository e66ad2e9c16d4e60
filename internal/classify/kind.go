package classify

// Kind is the category of a detected transaction. When several candidates
// share a transaction hash, the one whose kind has the highest priority wins.
type Kind int

const (
	KindOther Kind = iota
	KindApproval
	KindTransfer1155
	KindTransfer
	KindSend
)

// Priority defines the total order used to pick one candidate per
// transaction. It is deliberately separate from the enum values so the
// ranking rule is explicit.
func (k Kind) Priority() int {
	switch k {
	case KindSend:
		return 100
	case KindTransfer:
		return 50
	case KindTransfer1155:
		return 49
	case KindApproval:
		return 25
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindSend:
		return "Send"
	case KindTransfer:
		return "Transfer"
	case KindTransfer1155:
		return "Transfer1155"
	case KindApproval:
		return "Approval"
	default:
		return "Other"
	}
}
