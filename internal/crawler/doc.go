// Package crawler defines the work items, fetch results, and collaborator
// contracts shared by the pipeline, the fetchers, and the site parsers.
package crawler
