// Package fetch retrieves package metadata documents.
//
// [Client.Fetch] accepts a [locator.Locator] and reads the metadata document
// from one of four sources:
//
//   - http(s) URLs, with retry on transient failures and one in-flight
//     request per URL shared between concurrent callers
//   - local directories, reading the metadata file inside them
//   - local .json files
//   - local .zip archives, using the shallowest entry whose name ends in
//     the metadata suffix
//
// Pasted documents are registered with [Client.AddText], which returns a
// synthetic "text:" locator.
//
// Every document passes through [crate.Parse], so callers receive either a
// structurally valid document or an error carrying a code from
// [github.com/matzehuels/crateview/pkg/errors]. A server answering 409
// Conflict yields an [errors.AlreadyIndexedError] naming the alternate
// locator instead of a document.
package fetch
