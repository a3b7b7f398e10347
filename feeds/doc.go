// Package feeds manages external threat feed descriptors and runs the
// polling side of ingestion. The Registry owns descriptors and persists them
// through the storage layer, the Poller runs fetch-extract-submit cycles,
// and the Service supervises one poll goroutine per active feed.
package feeds
