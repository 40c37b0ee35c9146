package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/achilleasa/octrace/accel/octree"
	"github.com/achilleasa/octrace/metrics"
	"github.com/achilleasa/octrace/types"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

// Cast random rays against a model and report query throughput.
func Bench(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	model, err := loadModel(ctx)
	if err != nil {
		return err
	}

	var extra []octree.Option
	if addr := ctx.String("metrics-addr"); addr != "" {
		reg := prometheus.NewRegistry()
		extra = append(extra, octree.WithObserver(metrics.NewObserver(reg, nil)))

		server := &http.Server{
			Addr:    addr,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("metrics server: %v", err)
			}
		}()
		defer server.Close()
		logger.Noticef("serving prometheus metrics on %s", addr)
	}

	tree := buildOctree(ctx, model, extra...)
	rays := randomRays(model.Mesh.BBox(), ctx.Int("rays"), ctx.Int64("seed"))
	shadow := ctx.Bool("shadow")

	runCtx, cancel := interruptContext()
	defer cancel()

	var hits int64
	start := time.Now()
	group, groupCtx := errgroup.WithContext(runCtx)
	for _, span := range splitRange(len(rays), ctx.Int("workers")) {
		span := span
		group.Go(func() error {
			return castRays(groupCtx, tree, rays[span[0]:span[1]], shadow, &hits)
		})
	}
	if err = group.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Rays", "Shadow", "Hits", "Time", "Rays/sec"})
	table.Append([]string{
		fmt.Sprintf("%d", len(rays)),
		fmt.Sprintf("%t", shadow),
		fmt.Sprintf("%d", hits),
		elapsed.String(),
		fmt.Sprintf("%.0f", float64(len(rays))/elapsed.Seconds()),
	})
	table.Render()
	logger.Noticef("benchmark results\n%s", buf.String())

	if linger := ctx.Duration("metrics-linger"); linger > 0 && ctx.String("metrics-addr") != "" {
		logger.Noticef("keeping metrics endpoint alive for %s", linger)
		select {
		case <-time.After(linger):
		case <-runCtx.Done():
		}
	}

	return nil
}

// Cast a batch of rays, checking for cancellation between rays.
func castRays(ctx context.Context, tree *octree.Octree, rays []types.Ray, shadow bool, hits *int64) error {
	var batchHits int64
	for index, ray := range rays {
		if index%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if hit, _ := tree.RayIntersect(ray, shadow); hit {
			batchHits++
		}
	}

	atomic.AddInt64(hits, batchHits)
	return nil
}
