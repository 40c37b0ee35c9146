package reader

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"io"
	"time"

	"github.com/achilleasa/octrace/asset"
	"github.com/achilleasa/octrace/log"
	"github.com/pkg/errors"
)

type zipModelReader struct {
	logger log.Logger
}

func newZipModelReader() *zipModelReader {
	return &zipModelReader{
		logger: log.New("zip reader"),
	}
}

// Read a compiled model from a zip archive.
func (p *zipModelReader) Read(res *asset.Resource) (*asset.Model, error) {
	p.logger.Noticef(`loading compiled model from "%s"`, res.Path())
	start := time.Now()

	// zip.NewReader requires an io.ReaderAt so the archive is buffered in
	// memory first.
	data, err := io.ReadAll(res)
	if err != nil {
		return nil, errors.Wrapf(err, "zip reader: could not read %s", res.Path())
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "zip reader: %s", res.Path())
	}

	var model *asset.Model
	for _, f := range zr.File {
		if f.Name != asset.CompiledDataFile {
			p.logger.Warningf("unknown file %s in model zip file; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "zip reader: could not open %s", f.Name)
		}
		model = &asset.Model{}
		err = gob.NewDecoder(rc).Decode(model)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "zip reader: failed to load %s", f.Name)
		}
	}

	if model == nil || model.Mesh == nil {
		return nil, errors.Errorf("zip reader: %s does not contain a compiled mesh", res.Path())
	}
	model.Mesh.MarkBBoxDirty()

	p.logger.Noticef("loaded model in %d ms", time.Since(start).Nanoseconds()/1e6)
	return model, nil
}
