// Package pagination walks paginated upstream listings and re-paginates the
// accumulated records for the caller.
//
// The upstream returns listings as {count, next, previous, results} where next
// is an absolute link to the following page. The Walker follows those links
// sequentially and accumulates every record:
//
//	walker := pagination.NewWalker(upstreamClient, pagination.DefaultConfig())
//	result, err := walker.FetchAll(ctx, swapi.People, url.Values{"search": {"sky"}})
//
// The walker:
//   - Fails only when the first page fails
//   - Takes the reported total from the first page only
//   - Stops with partial results when a later page fails
//   - Stops with partial results at MaxPages or when a next link repeats
//
// Paginate slices the (possibly sorted) records into one output page:
//
//	page := pagination.Paginate(result.Records, pagination.ParsePage(r), pagination.ParsePageSize(s))
package pagination
