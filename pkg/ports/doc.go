/*
Package ports defines the driven ports (interfaces) for the Stencil driver.

These interfaces decouple the batch core from external collaborators: the
image-synthesis backend, the template and prompt files produced upstream,
and the artifact directory that makes reruns resumable.

# Key Interfaces

  - JobService: submit / poll / fetch / download against the remote backend.
  - TemplateLoader: loads visual graph templates (one per backend capability).
  - PromptSource: read-only access to the fused prompt records.
  - ArtifactStore: existence checks and writes in the artifact directory.
  - RunJournal: optional per-run outcome ledger for observability.
*/
package ports
