package compiler

import (
	"fmt"
	"maps"
	"slices"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"go.trai.ch/zerr"
)

// errSnapshotMoved reports that another batch committed after this batch took
// its snapshot. Compile replays such a batch on the newer manifest.
var errSnapshotMoved = zerr.New("manifest changed while the batch ran")

// commit writes the outputs of a batch and publishes its index. A batch that
// started before the last committed one is superseded: nothing is written and
// its files are carried into the next batch. A newer batch planned on an index
// that is no longer current returns errSnapshotMoved without writing.
func (c *Compiler) commit(b *batch, run *runState, result *domain.CompileResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed > b.seq {
		result.Superseded = true
		result.Generation = c.index.Generation()
		for _, j := range b.jobs {
			c.carry[j.entry.SourceFile] = struct{}{}
		}
		c.deps.Logger.Debug(fmt.Sprintf("batch %d superseded, %d files carried over", b.seq, len(b.jobs)))
		c.deps.Metrics.BatchFinished(StatusSuperseded, result.Generation)
		return nil
	}
	if b.base != c.index {
		c.deps.Logger.Debug(fmt.Sprintf("batch %d planned on generation %d, replaying on generation %d",
			b.seq, b.base.Generation(), c.index.Generation()))
		return errSnapshotMoved
	}
	c.committed = b.seq
	idx := b.index

	for _, id := range slices.Sorted(maps.Keys(b.removed)) {
		entry := b.removed[id]
		if entry.OutputFile == "" {
			continue
		}
		if err := c.deps.Outputs.Remove(entry.OutputFile); err != nil {
			c.deps.Logger.Warn(err.Error())
		}
	}

	for _, id := range slices.Sorted(maps.Keys(run.done)) {
		res := run.done[id]
		entry, ok := idx.Lookup(id)
		if !ok {
			continue
		}

		if res.err == nil {
			out := c.deps.Outputs.PathFor(id)
			if err := c.deps.Outputs.Write(out, res.output, entry.ContentHash); err != nil {
				res.err = zerr.With(err, "file", entry.SourceFile)
				delete(result.Succeeded, entry.SourceFile)
				delete(result.Cached, entry.SourceFile)
				delete(result.AtRisk, entry.SourceFile)
				result.Failed[entry.SourceFile] = res.err
			} else {
				entry.OutputFile = out
				entry.InputHash = res.inputHash
				entry.LazyImports = res.lazy
				entry.Stale = false
			}
		}
		// A failed file keeps its previous output and is retried by the next batch.
		if res.err != nil {
			entry.Stale = true
		}
		idx.Upsert(entry)
	}

	result.Generation = idx.Advance()
	c.index = idx

	status := StatusOK
	if !result.OK() {
		status = StatusFailed
	}
	c.deps.Metrics.BatchFinished(status, result.Generation)

	return c.deps.Manifests.Save(idx.Manifest())
}
