/*
Package stencil drives batch image generation against a ComfyUI-compatible
backend. It compiles editor-style visual graph templates into flat job
graphs, injects per-combination parameters (fused prompts, reference
images, sampler seeds, output names), and runs each combination end to end:
submit, bounded-wait poll, artifact download, persist.

Batches are resumable by construction: a combination whose artifact already
exists on disk is skipped without a new submission, so rerunning the whole
batch is the retry mechanism.

The Generator type is the high-level entry point; pkg/compiler, pkg/inject
and pkg/batch expose the underlying pieces for programmatic use.
*/
package stencil
