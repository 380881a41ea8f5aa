// Package kernel provides the shared value objects of the order domain.
//
// The package includes:
//   - UUID: identifier for orders, branches, customers and couriers
//   - Location: a WGS84 coordinate with haversine distance in kilometres
//
// Both are immutable, validated on construction and safe for concurrent use.
package kernel
