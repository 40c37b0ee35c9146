// Package reader loads models from wavefront OBJ files and compiled zip
// archives.
package reader

import (
	"github.com/achilleasa/octrace/asset"
	"github.com/pkg/errors"
)

// The Reader interface is implemented by all model readers.
type Reader interface {
	// Read a model from a resource.
	Read(*asset.Resource) (*asset.Model, error)
}

// Read a model from a local file or http(s) URL.
func ReadModel(pathToModel string) (*asset.Model, error) {
	res, err := asset.NewResource(pathToModel, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return ReadResource(res)
}

// Read a model from an open resource, selecting the reader based on the
// resource extension.
func ReadResource(res *asset.Resource) (*asset.Model, error) {
	var reader Reader
	switch res.Ext() {
	case ".obj":
		reader = newWavefrontReader()
	case ".zip":
		reader = newZipModelReader()
	default:
		return nil, errors.Errorf("reader: unsupported file format %q", res.Ext())
	}

	model, err := reader.Read(res)
	if err != nil {
		return nil, err
	}

	if err = model.Mesh.Validate(); err != nil {
		return nil, errors.Wrapf(err, "reader: %s", res.Path())
	}
	return model, nil
}
