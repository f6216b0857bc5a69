package core

import "fmt"

// SchemaVersionError is fatal: the store carries a schema version this
// binding does not understand, and no migration is attempted.
type SchemaVersionError struct {
	Metamodel string
	Version   int
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("metamodel %s already installed with unknown schema version %d", e.Metamodel, e.Version)
}

// NoSuchModelError reports a query against a model number with no stored
// latent state.
type NoSuchModelError struct {
	Generator string
	ModelNo   int
}

func (e *NoSuchModelError) Error() string {
	return fmt.Sprintf("no such model in generator %q: %d", e.Generator, e.ModelNo)
}

// NoSuchRowError reports a row lookup that matched nothing.
type NoSuchRowError struct {
	Table string
	RowID int64
}

func (e *NoSuchRowError) Error() string {
	return fmt.Sprintf("no such row in table %q: %d", e.Table, e.RowID)
}

// DuplicateRowError reports a row lookup that was expected to be unique
// but matched more than one row.
type DuplicateRowError struct {
	Table string
	RowID int64
}

func (e *DuplicateRowError) Error() string {
	return fmt.Sprintf("more than one row in table %q: %d", e.Table, e.RowID)
}

// WrongRowLengthError reports an inserted row whose arity does not match
// the table.
type WrongRowLengthError struct {
	Want int
	Got  int
}

func (e *WrongRowLengthError) Error() string {
	return fmt.Sprintf("wrong row length: expected %d, got %d", e.Want, e.Got)
}

// ColumnNotModelledError reports an engine-index lookup for a column the
// generator does not model.
type ColumnNotModelledError struct {
	Generator string
	Column    string
}

func (e *ColumnNotModelledError) Error() string {
	return fmt.Sprintf("column not modelled in generator %q: %q", e.Generator, e.Column)
}

// UnknownCategoricalValueError reports codification of a categorical value
// absent from its code map. Code maps are frozen at generator creation
// time.
type UnknownCategoricalValueError struct {
	Column string
	Value  string
}

func (e *UnknownCategoricalValueError) Error() string {
	return fmt.Sprintf("unknown categorical value for column %q: %q", e.Column, e.Value)
}

// UnsupportedStatTypeError reports a stattype the metamodel has no
// distribution family for. It is fatal at generator-creation time.
type UnsupportedStatTypeError struct {
	Column   string
	StatType StatType
}

func (e *UnsupportedStatTypeError) Error() string {
	return fmt.Sprintf("unsupported stattype for column %q: %q", e.Column, e.StatType)
}
