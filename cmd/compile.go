package cmd

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/achilleasa/octrace/asset/reader"
	"github.com/achilleasa/octrace/asset/writer"
	"github.com/urfave/cli"
	"go.uber.org/multierr"
)

// Compile wavefront models to the binary zip format. Files that fail to
// compile do not prevent the remaining files from being processed.
func CompileModel(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing model file argument")
	}

	var errs error
	for idx := 0; idx < ctx.NArg(); idx++ {
		modelFile := ctx.Args().Get(idx)
		if strings.ToLower(filepath.Ext(modelFile)) != ".obj" {
			logger.Warningf("skipping unsupported file %s", modelFile)
			continue
		}

		logger.Noticef("parsing and compiling model: %s", modelFile)
		model, err := reader.ReadModel(modelFile)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		zipFile := strings.TrimSuffix(modelFile, filepath.Ext(modelFile)) + ".zip"
		errs = multierr.Append(errs, writer.WriteModel(model, zipFile))
	}

	return errs
}
