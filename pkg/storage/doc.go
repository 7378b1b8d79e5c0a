// Package storage manages the per-class image directories of the dataset.
//
// A Manager owns <root>/<class> and the set of fingerprints stored there.
// Seed rebuilds the set from disk at the start of a run and deletes any
// file whose fingerprint was already seen, which repairs duplicates left
// by earlier runs. Commit writes new images atomically (temporary file
// plus rename) under <class>_<count>_<rand>.jpg.
//
//	m, err := storage.NewManager("dataset/raw", "Angus", 4, log)
//	report, err := m.Seed(ctx)
//	if !m.Has(fp) {
//		name, err := m.Commit(data, fp)
//	}
package storage
