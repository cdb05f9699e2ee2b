// Package acquire turns user-supplied inputs into local media files.
//
// Expand resolves folders into their media children before a batch starts
// so the batch size is known up front. Fetch makes one item available on
// disk, downloading remote URLs into the work directory.
package acquire
