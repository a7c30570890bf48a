// Package http implements the HTTP handlers of the probe analysis service.
//
// Handlers stay thin: they parse and validate request parameters, call a
// service and render the result with go-chi/render. Service errors are
// mapped onto RFC 7807 problems through the shared ErrorHandler.
//
// # Routes
//
//	POST   /api/analysis                          multipart "files" upload, runs a batch
//	GET    /api/analysis                          current batch result
//	DELETE /api/analysis                          drop the current batch
//	GET    /api/analysis/sections                 non-empty sections
//	GET    /api/analysis/sections/{section}       per-file series (?source=)
//	GET    /api/analysis/sections/{section}/summary  statistics (?lower=&upper=), 204 when empty
//	GET    /api/analysis/sections/{section}/export.csv
//	GET    /api/analysis/headers                  headers (?station=&operator=&status=&sn=)
//	GET    /api/analysis/headers/{file}/raw       raw header lines
//	GET    /api/analysis/filters                  distinct filter values
//	GET    /api/analysis/export.xlsx              workbook (?limit=section:lower:upper)
//	GET    /api/analysis/export.csv               statistics CSV
//	GET    /api/health[/ready|/live|/detailed|/stats], /api/version
//	GET    /metrics                               Prometheus scrape
//
// Filter parameters may be repeated or comma separated and apply to every
// query and export.
package http
