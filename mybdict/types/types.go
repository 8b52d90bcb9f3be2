package types

import "context"

// Entry is one (word, code, weight) record. Code is raw when produced by a
// Source and canonical once it reaches the payload encoder.
type Entry struct {
	Word   string
	Code   string
	Weight int32
}

// Source produces entries from a format-specific dictionary file.
// Each call to Entries starts a fresh pass; fn returning an error stops the pass
// and that error is returned.
type Source interface {
	Format() string
	Entries(ctx context.Context, path string, fn func(Entry) error) error
}

// Factory creates a fresh Source for one conversion.
type Factory func() Source

// StatsReporter is implemented by sources that count dropped records.
type StatsReporter interface {
	Stats() SourceStats
}

// Versioned is implemented by sources that read a version from the file header.
type Versioned interface {
	SourceVersion() string
}

// SourceStats summarizes records a Source dropped as noise.
type SourceStats struct {
	Records     int64
	Skipped     int64
	BadWeights  int64
	InvalidUTF8 int64
}
