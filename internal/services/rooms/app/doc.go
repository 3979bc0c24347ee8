// Package server composes and runs the rooms process boundary.
//
// It hosts the JSON command API and a gRPC health listener over one store,
// and runs the recovery sweep for interrupted room deletions. When Redis is
// configured it also serves the room cache and the cascade queue worker.
package server
