package storage

import "fmt"

// TableNotFoundError reports that the destination table does not exist.
// Tables are provisioned out-of-band and never created by Upsert.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("storage: table %s does not exist", e.Table)
}

// ConstraintViolationError reports that a batch violated a key, foreign key,
// not-null or check constraint. No row of the batch was applied.
type ConstraintViolationError struct {
	Table      string
	Constraint string
	Detail     string
	Err        error
}

func (e *ConstraintViolationError) Error() string {
	msg := fmt.Sprintf("storage: table %s: constraint violation", e.Table)
	if e.Constraint != "" {
		msg += " (" + e.Constraint + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConstraintViolationError) Unwrap() error { return e.Err }
