// Package housekeeping inspects and trims class directories outside of a
// scrape: counting images, deleting a random sample, finding images that
// are not RGB and finding byte-identical copies.
package housekeeping
