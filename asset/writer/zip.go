package writer

import (
	"archive/zip"
	"encoding/gob"
	"io"
	"os"
	"time"

	"github.com/achilleasa/octrace/asset"
	"github.com/achilleasa/octrace/log"
	"github.com/pkg/errors"
)

type zipModelWriter struct {
	logger   log.Logger
	filename string
}

func newZipModelWriter(filename string) *zipModelWriter {
	return &zipModelWriter{
		logger:   log.New("zip writer"),
		filename: filename,
	}
}

// Write model to the zip file.
func (w *zipModelWriter) Write(model *asset.Model) error {
	if model == nil || model.Mesh == nil {
		return errors.New("zip writer: model does not contain a mesh")
	}

	w.logger.Noticef(`writing compiled model to "%s"`, w.filename)
	start := time.Now()

	f, err := os.Create(w.filename)
	if err != nil {
		return errors.Wrap(err, "zip writer")
	}

	if err = encodeZip(f, model); err != nil {
		f.Close()
		os.Remove(w.filename)
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "zip writer: could not close %s", w.filename)
	}

	w.logger.Noticef("wrote compiled model in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Encode model as a gob stream stored in a single zip entry.
func encodeZip(out io.Writer, model *asset.Model) error {
	zw := zip.NewWriter(out)
	entry, err := zw.Create(asset.CompiledDataFile)
	if err != nil {
		return errors.Wrap(err, "zip writer")
	}

	if err = gob.NewEncoder(entry).Encode(model); err != nil {
		return errors.Wrap(err, "zip writer: could not encode model")
	}

	return errors.Wrap(zw.Close(), "zip writer")
}
