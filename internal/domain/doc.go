// Package domain defines the data model shared across the pipeline.
//
// DiscoveredDevice is produced by the discovery engine, one record per
// host candidate keyed by IP address. AssessedDevice embeds it and adds
// the hardware/software profile gathered by exactly one assessment
// method. InventoryTree is the final fixed-shape hierarchical inventory
// grouping hosts by tier/role and by OS family.
//
// The types here are pure data with JSON and YAML tags; all behavior
// beyond merge and lookup helpers lives in the engine packages.
package domain
