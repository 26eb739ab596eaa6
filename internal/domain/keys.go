package domain

// KeyPrefix namespaces every key the service writes to the shared store.
const KeyPrefix = "ideascout:"

// CatalogIndex is the FT index over catalog item hashes.
const CatalogIndex = KeyPrefix + "items:idx"

// CatalogItemPrefix prefixes every catalog item hash key.
const CatalogItemPrefix = KeyPrefix + "item:"
