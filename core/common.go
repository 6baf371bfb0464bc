package core

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Operation represents a modifying catalog operation, one of Create, Update, Patch, Delete
type Operation string

// all supported catalog operations
const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationPatch  Operation = "patch"
	OperationDelete Operation = "delete"
)

// UnmarshalJSON is a custom JSON unmarshaller
func (o *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Operation(s)
	switch *o {
	case OperationCreate, OperationUpdate, OperationPatch, OperationDelete:
		return nil
	default:
		return fmt.Errorf("%s is not valid Operation", s)
	}
}

// Resource names as they appear in routes and notifications
const (
	ResourceProduct      = "product"
	ResourceSolarProject = "solar_project"
	ResourceGasPrice     = "gas_price"
)
