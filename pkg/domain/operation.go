package domain

// Operation names an action a caller can attempt against a record or a
// transaction type. The access control evaluator dispatches on it.
type Operation string

const (
	OpCreate Operation = "CREATE"
	OpRead   Operation = "READ"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
	OpSubmit Operation = "SUBMIT"
)

func (o Operation) String() string { return string(o) }
