// Package files finds probe result files on disk and loads them for analysis.
//
// Discovery expands files and directories into .raw/.imp files; Loader reads
// them into domain.SourceFile values, enforcing a size limit and unique names.
//
// Example usage:
//
//	found, err := files.NewDiscovery("", nil).Collect([]string{"results/"}, true)
//	sources, err := files.NewLoader(config.DefaultMaxFileSize, logger).Load(ctx, found)
package files
