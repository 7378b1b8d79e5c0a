package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"breedscraper/internal/hasher"
	"breedscraper/pkg/fingerprint"
	"breedscraper/pkg/logger"
)

// ErrDuplicate is returned by Commit when the fingerprint is already stored
var ErrDuplicate = errors.New("fingerprint already stored")

// SeedReport summarizes a seed pass over a class directory
type SeedReport struct {
	Unique     int
	Removed    int
	Unreadable int
}

// Manager owns one class directory and its set of stored fingerprints
type Manager struct {
	class   string
	dir     string
	workers int
	hashes  map[string]string // fingerprint -> file name
	rng     *rand.Rand
	mu      sync.Mutex
	logger  logger.Logger
}

// NewManager creates a manager for baseDir/class, creating the directory
func NewManager(baseDir, class string, workers int, log logger.Logger) (*Manager, error) {
	dir := filepath.Join(baseDir, class)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create class directory: %w", err)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Manager{
		class:   class,
		dir:     dir,
		workers: workers,
		hashes:  make(map[string]string),
		rng:     rand.New(rand.NewSource(rand.Int63())),
		logger:  log.WithFields(map[string]interface{}{"component": "storage", "class": class}),
	}, nil
}

// Seed rebuilds the fingerprint set from the files on disk. Files are
// hashed concurrently; then, in file name order, the first file of each
// fingerprint is kept and later ones are deleted. Files that cannot be
// decoded are left in place.
func (m *Manager) Seed(ctx context.Context) (SeedReport, error) {
	var report SeedReport

	files, err := ListImages(m.dir)
	if err != nil {
		return report, err
	}

	paths := make([]string, len(files))
	for i, name := range files {
		paths[i] = filepath.Join(m.dir, name)
	}

	results, err := hasher.HashAll(ctx, m.workers, fingerprint.File, paths, m.logger)
	if err != nil {
		return report, fmt.Errorf("failed to hash existing images: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.hashes = make(map[string]string, len(results))
	for _, r := range results {
		name := filepath.Base(r.Path)
		if r.Err != nil {
			report.Unreadable++
			m.logger.WarnWithFields("Skipping unreadable image", map[string]interface{}{
				"file":  name,
				"error": r.Err.Error(),
			})
			continue
		}

		if kept, dup := m.hashes[r.Fingerprint]; dup {
			if err := os.Remove(r.Path); err != nil && !os.IsNotExist(err) {
				m.logger.WarnWithFields("Failed to remove duplicate", map[string]interface{}{
					"file":  name,
					"error": err.Error(),
				})
				continue
			}
			report.Removed++
			m.logger.DebugWithFields("Removed duplicate image", map[string]interface{}{
				"file": name,
				"kept": kept,
				"hash": r.Fingerprint,
			})
			continue
		}
		m.hashes[r.Fingerprint] = name
	}

	report.Unique = len(m.hashes)
	m.logger.InfoWithFields("Seeded existing images", map[string]interface{}{
		"unique":     report.Unique,
		"removed":    report.Removed,
		"unreadable": report.Unreadable,
	})
	return report, nil
}

// Has reports whether fp is already stored
func (m *Manager) Has(fp string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.hashes[fp]
	return ok
}

// Commit writes data as the next image of the class and registers fp.
// The check and the write happen under one lock, so a fingerprint is
// committed at most once.
func (m *Manager) Commit(data []byte, fp string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.hashes[fp]; dup {
		return "", ErrDuplicate
	}

	name, err := m.nextName()
	if err != nil {
		return "", err
	}
	if err := WriteFileAtomic(filepath.Join(m.dir, name), bytes.NewReader(data)); err != nil {
		return "", err
	}

	m.hashes[fp] = name
	return name, nil
}

// nextName picks <class>_<count+1>_<rand>.jpg, avoiding existing files
func (m *Manager) nextName() (string, error) {
	index := len(m.hashes) + 1
	for i := 0; i < 1000; i++ {
		name := fmt.Sprintf("%s_%04d_%03d.jpg", m.class, index, m.rng.Intn(999)+1)
		if _, err := os.Stat(filepath.Join(m.dir, name)); os.IsNotExist(err) {
			return name, nil
		}
	}
	return "", fmt.Errorf("no free file name for image %d", index)
}

// Count returns the number of unique images stored
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hashes)
}

// Dir returns the class directory
func (m *Manager) Dir() string {
	return m.dir
}

// Class returns the class label
func (m *Manager) Class() string {
	return m.class
}

// imageExts are the extensions counted as dataset images
var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// IsImageFile reports whether name has a dataset image extension
func IsImageFile(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// ListImages returns the image file names in dir, sorted
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsImageFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// WriteFileAtomic writes r to path through a temporary file and rename
func WriteFileAtomic(path string, r io.Reader) error {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write image data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// EncodeJPEG encodes img as a quality 95 JPEG
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
