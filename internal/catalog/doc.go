// Package catalog decodes configured catalogs and resolves, once per run,
// where each incremental stream keeps its cursor in records and in state.
package catalog
