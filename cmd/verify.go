package cmd

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/achilleasa/octrace/accel"
	"github.com/achilleasa/octrace/accel/brute"
	"github.com/achilleasa/octrace/accel/octree"
	"github.com/achilleasa/octrace/types"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

// Counters collected while comparing an accelerator against the linear scan.
type verifyResult struct {
	policy     octree.AssignPolicy
	hits       int64
	missed     int64
	mismatched int64
	shadowDiff int64
}

// Compare octree answers for both assignment policies against a linear scan
// of the mesh.
func Verify(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	model, err := loadModel(ctx)
	if err != nil {
		return err
	}

	ref := brute.New(model.Mesh)
	rays := randomRays(model.Mesh.BBox(), ctx.Int("rays"), ctx.Int64("seed"))

	runCtx, cancel := interruptContext()
	defer cancel()

	var results []*verifyResult
	for _, policy := range []octree.AssignPolicy{octree.AssignAll, octree.AssignFirst} {
		tree := buildOctree(ctx, model, octree.WithPolicy(policy))
		res := &verifyResult{policy: policy}

		group, groupCtx := errgroup.WithContext(runCtx)
		for _, span := range splitRange(len(rays), ctx.Int("workers")) {
			span := span
			group.Go(func() error {
				return compareRays(groupCtx, tree, ref, rays[span[0]:span[1]], res)
			})
		}
		if err = group.Wait(); err != nil {
			return err
		}
		results = append(results, res)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Policy", "Rays", "Reference hits", "Missed", "Wrong hit", "Shadow mismatch"})
	for _, res := range results {
		table.Append([]string{
			res.policy.String(),
			fmt.Sprintf("%d", len(rays)),
			fmt.Sprintf("%d", res.hits),
			fmt.Sprintf("%d", res.missed),
			fmt.Sprintf("%d", res.mismatched),
			fmt.Sprintf("%d", res.shadowDiff),
		})
	}
	table.Render()
	logger.Noticef("verification results\n%s", buf.String())

	// Only the assign-all policy guarantees that no hits are lost.
	if res := results[0]; res.missed+res.mismatched+res.shadowDiff != 0 {
		return errors.Errorf("octree (%s) disagrees with linear scan for %d rays", res.policy, res.missed+res.mismatched+res.shadowDiff)
	}
	return nil
}

func compareRays(ctx context.Context, acc accel.Accelerator, ref accel.Accelerator, rays []types.Ray, res *verifyResult) error {
	for index, ray := range rays {
		if index%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		expHit, expIts := ref.RayIntersect(ray, false)
		hit, its := acc.RayIntersect(ray, false)
		switch {
		case expHit && !hit:
			atomic.AddInt64(&res.missed, 1)
		case hit != expHit || (hit && its.T != expIts.T):
			atomic.AddInt64(&res.mismatched, 1)
		}
		if expHit {
			atomic.AddInt64(&res.hits, 1)
		}

		expOccluded, _ := ref.RayIntersect(ray, true)
		if occluded, _ := acc.RayIntersect(ray, true); occluded != expOccluded {
			atomic.AddInt64(&res.shadowDiff, 1)
		}
	}
	return nil
}
