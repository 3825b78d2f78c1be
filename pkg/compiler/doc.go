/*
Package compiler turns an editor-style visual graph into the flat job graph
the image-synthesis backend executes.

The translation has three parts:

  - Link resolution: a link id names a wire between one producing output
    slot and one consuming input; ResolveLink finds the producer.
  - Widget decoding: each node kind stores its parameters as a raw
    positional array; a schema table maps positions to named, typed fields.
  - Compilation: for every non-organizational node, decoded literals are
    merged with resolved dependency references into a CompiledJobNode. A
    wired connection always wins over a positional literal of the same name.

Compilation is pure and deterministic: the same graph and widget values
always produce an identical JobGraph. Unknown node kinds pass through with
whatever the schema table can say about them (usually nothing).
*/
package compiler
