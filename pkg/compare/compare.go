package compare

import (
	"fmt"

	"github.com/tosih/vehicle-config-tool/pkg/codec"
	"github.com/tosih/vehicle-config-tool/pkg/coverage"
	"github.com/tosih/vehicle-config-tool/pkg/models"
)

// Difference is a property whose value differs between two configs.
type Difference struct {
	Field models.FieldSpec
	Left  models.Value
	Right models.Value
}

// Result summarizes a comparison of two blobs that share a map.
type Result struct {
	Map            *models.MapDefinition
	Differences    []Difference
	UnmappedBits   int
	FieldsCompared int
}

// Diff lists the fields of def whose values differ, in map order.
func Diff(def *models.MapDefinition, left, right models.PropertyTable) []Difference {
	var diffs []Difference
	for _, f := range def.Fields {
		l, r := left[f.Name], right[f.Name]
		if l != r {
			diffs = append(diffs, Difference{Field: f, Left: l, Right: r})
		}
	}
	return diffs
}

// CompareBlobs decodes both blobs and compares them. Both must carry the
// same project code.
func CompareBlobs(maps models.MapSet, left, right []byte) (*Result, error) {
	leftCode, err := codec.ProjectCode(left)
	if err != nil {
		return nil, err
	}
	rightCode, err := codec.ProjectCode(right)
	if err != nil {
		return nil, err
	}
	if leftCode != rightCode {
		return nil, fmt.Errorf("cannot compare %s with %s",
			models.ProjectLabel(leftCode), models.ProjectLabel(rightCode))
	}

	def, err := maps.Select(leftCode)
	if err != nil {
		return nil, err
	}
	leftTable, err := codec.Decode(left, def)
	if err != nil {
		return nil, fmt.Errorf("first config: %w", err)
	}
	rightTable, err := codec.Decode(right, def)
	if err != nil {
		return nil, fmt.Errorf("second config: %w", err)
	}

	return &Result{
		Map:            def,
		Differences:    Diff(def, leftTable, rightTable),
		UnmappedBits:   coverage.ChangedBits(coverage.Scan(def), left, right),
		FieldsCompared: len(def.Fields),
	}, nil
}
