// Package studio persists studio configuration in SQLite: the base layer
// mappings, route sets, exclusivity groups, settings, and blueprint config of
// every studio.
//
// Mappings and route sets are stored with explicit positions so reads return
// them in configuration order, which decides exclusivity-group winners during
// resolution. Every write that changes mappings or route sets recomputes the
// studio's mappings hash, and every write that changes blueprint config
// recomputes its rundown version hash, so consumers can tell which
// configuration a derived table was built from.
//
// Subscribers registered with Store.Subscribe are told about each committed
// change. The store does not resolve or cache anything itself; see the
// resolver package for that.
package studio
