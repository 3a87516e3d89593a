// Package ioc defines the observable (indicator of compromise) types that
// vtlookup understands, the registry that maps them onto the reputation
// service's API types, and the sanitizer that validates and normalizes raw
// observable values before they are submitted.
//
// Design decision: canonical types are an enum rather than strings. Each
// canonical type is resolved to exactly one Descriptor and one Family when
// the Registry is built, so nothing downstream branches on type-name strings.
package ioc
