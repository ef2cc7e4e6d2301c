// Package fs provides a local directory implementation of storage.FileStore.
//
// Documents live under <root>/<projectID>/docs/, possibly in nested
// directories. Document paths handed out by the store are slash-separated
// and relative to the root, for example "7/docs/report.pdf".
package fs
