// Package domain models the climate datasets rendered by the chart engine.
//
// # Data Sources
//
// Every chart is driven by a static tabular file shipped with the site
// (anomalies.csv, co2.csv, sealevel.csv, antarctica.csv, greenland.csv,
// globaltemp.csv, globaltempcontributions.csv). Files are loaded once when a
// chart is mounted and are immutable afterwards.
//
// # Column Conventions
//
// Each file has exactly one header row. Columns are coerced per a declared
// schema:
//
//	year     -> integer key (the x axis of every time series)
//	value    -> float measurement (anomaly °C, ppm, mm, Gt, % contribution)
//	month    -> free-form label, kept for tooltips
//	country  -> label, code -> ISO-3166 alpha-3 code
//
// A malformed or missing numeric cell becomes NaN; a missing string cell
// becomes "". Coercion never fails a whole file.
//
// # Ordering
//
// A [Series] holds raw rows sorted by key; several rows may share a key (for
// example twelve monthly anomalies per year). [GroupByKey] collapses a series
// into one [GroupedStat] per distinct key, which is the strictly ascending,
// duplicate-free dataset the charts plot.
//
// # NaN Policy
//
// NaN measurements are excluded from aggregation. A key whose rows are all NaN
// produces no group, so min <= mean <= max holds for every emitted group.
//
// # Geometry
//
// [Dimensions] of {0,0} is the "not yet measured" sentinel and is never an
// error. [Margin] insets the container to the drawable [Bounds].
package domain
