package dispatch

// Operation is one of the fixed request kinds accepted by the dispatcher
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpEcho   Operation = "echo"
)

// Operations lists every supported operation
var Operations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete, OpEcho}

// ParseOperation maps a request operation name to its Operation.
// Matching is exact; names are case sensitive.
func ParseOperation(name string) (Operation, bool) {
	switch op := Operation(name); op {
	case OpCreate, OpRead, OpUpdate, OpDelete, OpEcho:
		return op, true
	}
	return "", false
}

func (o Operation) String() string {
	return string(o)
}
