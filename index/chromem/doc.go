// Package chromem implements the index.Index interface on top of the
// embedded chromem-go vector database. Collections are partitioned per
// owner and can be kept fully in memory or persisted to disk.
package chromem
