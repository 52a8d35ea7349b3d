// Package identity holds the process-wide scoping context supplied by the
// hosting environment at startup. It is read-only after construction; every
// component that needs tenant/dataset scoping receives it explicitly instead
// of reaching for ambient globals.
package identity

import "os"

// Context carries the identifiers that scope all patch requests, audit
// events, and export artifacts produced by this process.
type Context struct {
	TenantID    string
	DivisionID  string
	DatasetID   string
	WorkspaceID string
	BatchID     string
}

// FromEnv builds an identity context from environment variables, with
// development defaults so local runs work out of the box.
func FromEnv() Context {
	return Context{
		TenantID:    envOr("PATCHDESK_TENANT_ID", "tenant_dev"),
		DivisionID:  envOr("PATCHDESK_DIVISION_ID", "division_dev"),
		DatasetID:   envOr("PATCHDESK_DATASET_ID", "dataset_dev"),
		WorkspaceID: envOr("PATCHDESK_WORKSPACE_ID", "ws_dev"),
		BatchID:     envOr("PATCHDESK_BATCH_ID", "Batch 001"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
