package constraint

import "slices"

// Kind distinguishes check constraints from unique indexes
type Kind string

const (
	KindCheck  Kind = "check"
	KindUnique Kind = "unique"
)

// Metadata describes one declared constraint. It is never mutated after
// registration; Fields is copied on the way in and on the way out.
type Metadata struct {
	Kind         Kind     `json:"kind" yaml:"kind"`
	LogicalName  string   `json:"logicalName" yaml:"logicalName"`
	PhysicalName string   `json:"physicalName" yaml:"physicalName"`
	OwnerType    string   `json:"ownerType" yaml:"ownerType"`
	Message      string   `json:"message" yaml:"message"`
	Fields       []string `json:"fields" yaml:"fields"`

	// Table is the owner's table name, used to resolve drivers that
	// report a unique violation by column list instead of index name
	Table string `json:"table,omitempty" yaml:"table,omitempty"`

	// SQL is the compiled CHECK body, or the key list for unique indexes
	SQL string `json:"sql,omitempty" yaml:"sql,omitempty"`
}

func (m Metadata) clone() Metadata {
	m.Fields = slices.Clone(m.Fields)
	return m
}
