package model

// FileVersion identifies the container layout understood by this library.
const FileVersion = "0.1"

// LibraryVersion is recorded alongside every dumped tree sequence.
const LibraryVersion = "0.1.0"

// RecordColumns holds the five aligned ancestry record arrays. Entry j of
// every column describes one coalescence event: the pair Children[j] merges
// into Parent[j] at Time[j], valid over the half-open interval
// [Left[j], Right[j]).
type RecordColumns struct {
	Left     []uint32    `json:"left"`
	Right    []uint32    `json:"right"`
	Children [][2]uint32 `json:"children"`
	Parent   []uint32    `json:"parent"`
	Time     []float64   `json:"time"`
}

// Len returns the number of records, or -1 if the columns are misaligned.
func (c RecordColumns) Len() int {
	n := len(c.Left)
	if len(c.Right) != n || len(c.Children) != n || len(c.Parent) != n || len(c.Time) != n {
		return -1
	}
	return n
}

// Container is the serialized form of a tree sequence: record columns,
// breakpoints and the two metadata blocks. It is the unit of exchange with
// the external simulator and with the persistence layer.
type Container struct {
	FileVersion    string        `json:"file_version"`
	LibraryVersion string        `json:"library_version"`
	Breakpoints    []uint32      `json:"breakpoints"`
	Records        RecordColumns `json:"records"`
	Parameters     Parameters    `json:"parameters"`
	Environment    Environment   `json:"environment"`
}

// Parameters are the reproduction parameters: everything required to
// deterministically recreate the simulation that produced a tree sequence.
type Parameters struct {
	SampleSize              uint32            `json:"sample_size"`
	NumLoci                 uint32            `json:"num_loci"`
	ScaledRecombinationRate float64           `json:"scaled_recombination_rate"`
	PopulationModels        []PopulationModel `json:"population_models"`
	RandomSeed              int64             `json:"random_seed"`
}
