package housekeeping

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"breedscraper/internal/hasher"
	"breedscraper/pkg/fingerprint"
	"breedscraper/pkg/logger"
	"breedscraper/pkg/storage"
)

// ErrNotEnoughImages is returned by DeleteRandom when asked to remove more
// images than the directory holds
var ErrNotEnoughImages = errors.New("not enough images to delete")

// Count returns the number of .jpg, .jpeg and .png files in dir
func Count(dir string) (int, error) {
	names, err := storage.ListImages(dir)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// DeleteRandom removes n images from dir chosen uniformly at random and
// returns their names. Nothing is removed when n exceeds the image count.
func DeleteRandom(dir string, n int, rng *rand.Rand) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid delete count %d", n)
	}
	names, err := storage.ListImages(dir)
	if err != nil {
		return nil, err
	}
	if n > len(names) {
		return nil, fmt.Errorf("%w: %s holds %d, asked for %d", ErrNotEnoughImages, dir, len(names), n)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	var deleted []string
	var errs []error
	for _, i := range rng.Perm(len(names))[:n] {
		if err := os.Remove(filepath.Join(dir, names[i])); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted = append(deleted, names[i])
	}
	sort.Strings(deleted)
	return deleted, errors.Join(errs...)
}

// ModeFinding is an image whose color mode is not RGB
type ModeFinding struct {
	Name string
	Mode fingerprint.Mode
}

// RGBReport is the result of scanning a directory's color modes
type RGBReport struct {
	Checked    int
	NonRGB     []ModeFinding
	Unreadable []string
}

// NonRGB decodes every image in dir and reports the ones that are not RGB
func NonRGB(dir string) (RGBReport, error) {
	var report RGBReport

	names, err := storage.ListImages(dir)
	if err != nil {
		return report, err
	}

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			report.Unreadable = append(report.Unreadable, name)
			continue
		}
		img, _, err := fingerprint.Decode(data)
		if err != nil {
			report.Unreadable = append(report.Unreadable, name)
			continue
		}
		report.Checked++
		if mode := fingerprint.ColorMode(img); mode != fingerprint.ModeRGB {
			report.NonRGB = append(report.NonRGB, ModeFinding{Name: name, Mode: mode})
		}
	}
	return report, nil
}

// Duplicate is a file whose bytes match an earlier file
type Duplicate struct {
	Path     string
	Original string
}

// ExactDuplicates walks dir recursively and reports files whose contents
// are byte-identical to a file earlier in path order. Files are hashed
// concurrently by workers goroutines.
func ExactDuplicates(ctx context.Context, dir string, workers int, log logger.Logger) ([]Duplicate, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	results, err := hasher.HashAll(ctx, workers, contentHash, paths, log)
	if err != nil {
		return nil, err
	}

	first := make(map[string]string, len(results))
	var dups []Duplicate
	for _, r := range results {
		if r.Err != nil {
			if log != nil {
				log.WarnWithFields("Failed to read file", map[string]interface{}{
					"file":  r.Path,
					"error": r.Err.Error(),
				})
			}
			continue
		}
		if orig, ok := first[r.Fingerprint]; ok {
			dups = append(dups, Duplicate{Path: r.Path, Original: orig})
			continue
		}
		first[r.Fingerprint] = r.Path
	}
	return dups, nil
}

func contentHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fingerprint.Content(data), nil
}
