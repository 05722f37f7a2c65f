package loader

import (
	"io"

	"github.com/vanderheijden86/vizsync/pkg/metrics"
)

// Genotype dataset columns.
const (
	ColStrainID = "Strain ID"
	ColStatus   = "NCD_Status"
	ColDistance = "match distance #1"
	ColSpecies  = "best matching database-strain species #1"
	ColLineage  = "best matching database-strain lineage #1"
)

// Strain is one row of the genotype dataset.
type Strain struct {
	ID       int
	Status   string
	Species  string
	Lineage  string
	Distance float64
}

// ParseStrains reads the genotype CSV. Rows whose strain id is not numeric are
// skipped with a warning.
func ParseStrains(r io.Reader, opts ParseOptions) ([]Strain, []string, error) {
	tbl, err := readTable(r)
	if err != nil {
		return nil, nil, err
	}
	if err := tbl.require(ColStrainID); err != nil {
		return nil, nil, err
	}

	var warnings []string
	strains := make([]Strain, 0, len(tbl.rows))
	for line, row := range tbl.rows {
		id, ok := parseNumber(tbl.cell(row, ColStrainID))
		if !ok {
			opts.warn(&warnings, "row %d: invalid strain id %q, skipped", line+2, tbl.cell(row, ColStrainID))
			continue
		}
		dist, ok := parseNumber(tbl.cell(row, ColDistance))
		if !ok && tbl.has(ColDistance) {
			opts.warn(&warnings, "row %d: strain %d has no match distance, using 0", line+2, int(id))
		}
		strains = append(strains, Strain{
			ID:       int(id),
			Status:   tbl.cell(row, ColStatus),
			Species:  tbl.cell(row, ColSpecies),
			Lineage:  tbl.cell(row, ColLineage),
			Distance: dist,
		})
	}
	return strains, warnings, nil
}

// LoadStrains reads the genotype dataset at path.
func LoadStrains(path string, opts ParseOptions) ([]Strain, []string, error) {
	defer metrics.Timer(metrics.DatasetLoad)()

	f, err := openDataset(DatasetGenotype, path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	strains, warnings, err := ParseStrains(f, opts)
	if err != nil {
		return nil, nil, &LoadError{Dataset: DatasetGenotype, Path: path, Err: err}
	}
	return strains, warnings, nil
}
