// Package stats is the snapshot engine: it fetches repository statistics
// from the forge and assembles them into point-in-time snapshots.
//
// The entry point is [Client], created with [New]. A [Client.Snapshot]
// call fans the requested categories out over a bounded worker pool; each
// category is fetched independently through a [Fetcher], which composes
// the shared rate budget, the retry controller, and the paginator. A
// failed category never fails the snapshot: it lands in the snapshot's
// failure set with a classified reason, and the caller decides what to do
// with the partial result.
//
//	client := stats.New(stats.Config{Transport: forge.NewHTTPTransport(token)})
//	snap, err := client.Snapshot(ctx, ref, stats.SnapshotOptions{})
//
// Passing a previous snapshot enables conditional re-fetch: categories
// unchanged on the forge are answered with a 304 and reuse the previous
// result at the cost of one request unit each.
package stats
