// Package writer stores models in the compiled zip format understood by the
// reader package.
package writer

import "github.com/achilleasa/octrace/asset"

// The Writer interface is implemented by all model writers.
type Writer interface {
	// Write model.
	Write(*asset.Model) error
}

// Write model to a compiled zip archive.
func WriteModel(model *asset.Model, filename string) error {
	writer := newZipModelWriter(filename)
	return writer.Write(model)
}
