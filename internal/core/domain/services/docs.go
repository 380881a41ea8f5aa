// Package services provides domain services that span the order aggregate and
// data it does not own.
//
// The package includes:
//   - GeofenceValidator: gates courier pickup and delivery on physical proximity
package services
