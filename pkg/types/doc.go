// Package types defines the schema layer of the itemdex metadata index:
// EntryInfo field descriptors, ahead-of-time composed Schemas, the Item
// container, the schema Registry, and the validation error types shared
// by the client and the stores.
package types
