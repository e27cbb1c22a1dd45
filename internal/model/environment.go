package model

import (
	"runtime"
	"strconv"
)

// Environment fingerprints the execution environment that produced a tree
// sequence. It is informational: round-tripped verbatim through dump/load
// and never interpreted by the traversal engines.
type Environment struct {
	GoVersion      string `json:"go_version"`
	Compiler       string `json:"compiler"`
	OS             string `json:"os"`
	Arch           string `json:"arch"`
	WordSize       string `json:"word_size"`
	LibraryVersion string `json:"library_version"`
}

// CurrentEnvironment captures the running process's fingerprint.
func CurrentEnvironment() Environment {
	return Environment{
		GoVersion:      runtime.Version(),
		Compiler:       runtime.Compiler,
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
		WordSize:       strconv.Itoa(strconv.IntSize),
		LibraryVersion: LibraryVersion,
	}
}
