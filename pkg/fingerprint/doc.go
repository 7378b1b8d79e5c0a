// Package fingerprint computes the keys used to deduplicate images.
//
// A fingerprint is the 64-bit average hash of the image after
// normalization to RGB, so re-encoded or resized copies of the same
// picture collide. Bytes that cannot be decoded fall back to a
// cryptographic content hash, which only matches identical bytes.
package fingerprint
