/*
Package domain contains the core domain models for the Stencil driver.

It defines the two graph representations the system pivots on, plus the
batch bookkeeping types:

  - VisualGraph / NodeRecord: the editor-style document (nodes, links,
    positional widget values) as saved by the visual frontend.
  - JobGraph / CompiledJobNode: the flat, backend-ready form where every
    input is either a literal or a dependency reference.
  - Combination: one (subject, reference) pair driving one generation.
  - JobSubmission / ArtifactRecord: tracking of one remote job and its
    produced output.

This package is kept pure and free of I/O, following Hexagonal Architecture
principles. Everything that touches the filesystem or the network lives in
pkg/adapters.
*/
package domain
